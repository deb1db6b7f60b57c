package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
	"github.com/foyerhq/foyer-server/internal/util"
)

const sessionTTL = 7 * 24 * time.Hour

// SignInResult carries the session token and the bridge JWT for the
// separate backend.
type SignInResult struct {
	User         *model.User
	SessionToken string
	BridgeToken  string
}

// AuthService handles password and magic-link sign-in plus credentialed
// session creation. Session tokens are stored HMAC-hashed; the raw token
// only lives in the cookie.
type AuthService struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	magicLinkRepo repository.MagicLinkRepository
	mailer        Mailer
	tokenBridge   *TokenBridge
	sessionSecret string
	baseURL       string
	magicLinkTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	magicLinkRepo repository.MagicLinkRepository,
	mailer Mailer,
	tokenBridge *TokenBridge,
	sessionSecret, baseURL string,
	magicLinkTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		magicLinkRepo: magicLinkRepo,
		mailer:        mailer,
		tokenBridge:   tokenBridge,
		sessionSecret: sessionSecret,
		baseURL:       baseURL,
		magicLinkTTL:  magicLinkTTL,
	}
}

// PasswordSignIn authenticates with email and password.
func (s *AuthService) PasswordSignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil || user.PasswordHash == nil || !util.CheckPasswordHash(password, *user.PasswordHash) {
		// Same error for unknown email and wrong password.
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	return s.createSession(ctx, user)
}

// RequestMagicLink creates a single-use sign-in token and emails the link.
// An unknown email gets no error so the endpoint cannot be used to probe
// which addresses have accounts.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		log.Warn().Str("email", email).Msg("magic link requested for unknown email")
		return nil
	}

	token, err := util.GenerateToken()
	if err != nil {
		return apperrors.Internal("Failed to generate token").WithCause(err)
	}

	_, err = s.magicLinkRepo.Create(ctx, model.CreateMagicLinkTokenParams{
		TokenHash: util.HashToken(token),
		Email:     email,
		ExpiresAt: time.Now().Add(s.magicLinkTTL),
	})
	if err != nil {
		return apperrors.Database(err)
	}

	link := fmt.Sprintf("%s/signin/magic?token=%s", s.baseURL, token)
	if err := s.mailer.SendMagicLink(ctx, email, link); err != nil {
		log.Error().Err(err).Str("email", email).Msg("magic link email dispatch failed")
		return apperrors.External("email", err)
	}

	return nil
}

// MagicLinkSignIn consumes a magic-link token and creates a session.
func (s *AuthService) MagicLinkSignIn(ctx context.Context, token string) (*SignInResult, error) {
	ml, err := s.magicLinkRepo.Consume(ctx, util.HashToken(token))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if ml == nil {
		return nil, apperrors.InvalidToken("Sign-in link is invalid or expired")
	}

	user, err := s.userRepo.FindByEmail(ctx, ml.Email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.InvalidToken("Sign-in link is invalid or expired")
	}

	return s.createSession(ctx, user)
}

// ValidateSession resolves a raw session token to its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*model.User, error) {
	session, err := s.sessionRepo.FindByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token))
	if err != nil || session == nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, session.UserID)
}

// SignOut deletes the session for a raw token.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteByTokenHash(ctx, util.HmacSHA256(s.sessionSecret, token))
}

// CreateSession establishes a credentialed session for an already
// authenticated user (used by signup after redemption).
func (s *AuthService) CreateSession(ctx context.Context, user *model.User) (*SignInResult, error) {
	return s.createSession(ctx, user)
}

// MintBridgeToken issues a fresh backend token for an already
// authenticated user.
func (s *AuthService) MintBridgeToken(user *model.User) (string, error) {
	token, err := s.tokenBridge.Mint(user)
	if err != nil {
		return "", apperrors.Internal("Failed to mint bridge token").WithCause(err)
	}
	return token, nil
}

func (s *AuthService) createSession(ctx context.Context, user *model.User) (*SignInResult, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate session token").WithCause(err)
	}

	_, err = s.sessionRepo.Create(ctx, model.CreateSessionParams{
		TokenHash: util.HmacSHA256(s.sessionSecret, token),
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(sessionTTL),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("update last login")
	}

	bridgeToken, err := s.tokenBridge.Mint(user)
	if err != nil {
		return nil, apperrors.Internal("Failed to mint bridge token").WithCause(err)
	}

	log.Info().Str("userId", user.ID).Str("role", string(user.Role)).Msg("session created")

	return &SignInResult{
		User:         user,
		SessionToken: token,
		BridgeToken:  bridgeToken,
	}, nil
}
