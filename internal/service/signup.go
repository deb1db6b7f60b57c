package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/foyerhq/foyer-server/internal/database"
	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
)

// SignupParams describes a signup attempt. Password is optional; users who
// sign up without one rely on magic-link sign-in.
type SignupParams struct {
	Code     string
	Email    string
	Name     string
	Password *string
}

// SignupService is the redemption coordinator: it re-validates an access
// code at signup time and consumes it in the same database transaction as
// account creation, so a consumed code always has a matching user row.
type SignupService struct {
	db       *database.DB
	codeRepo repository.AccessCodeRepository
	userRepo repository.UserRepository
}

// NewSignupService creates a new signup service
func NewSignupService(
	db *database.DB,
	codeRepo repository.AccessCodeRepository,
	userRepo repository.UserRepository,
) *SignupService {
	return &SignupService{
		db:       db,
		codeRepo: codeRepo,
		userRepo: userRepo,
	}
}

// Signup redeems an access code and creates the account. Client-side
// validation results are never trusted: the code is re-checked here, and
// the conditional update on is_used serializes concurrent redemption so
// exactly one attempt wins. The rest get AlreadyUsed.
func (s *SignupService) Signup(ctx context.Context, params SignupParams) (*model.User, error) {
	code := NormalizeCode(params.Code)
	email := NormalizeEmail(params.Email)

	ac, err := s.codeRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if ac == nil {
		return nil, apperrors.InvalidAccessCode()
	}
	if ac.IsUsed {
		return nil, apperrors.AccessCodeUsed()
	}
	if ac.IsExpired() {
		return nil, apperrors.AccessCodeExpired()
	}

	var passwordHash *string
	if params.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Internal("Failed to hash password").WithCause(err)
		}
		h := string(hash)
		passwordHash = &h
	}

	var user *model.User
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		affected, err := s.codeRepo.WithTx(tx).MarkUsed(ctx, code, email, time.Now())
		if err != nil {
			return apperrors.Database(err)
		}
		if affected == 0 {
			// Lost the redemption race.
			return apperrors.AccessCodeUsed()
		}

		user, err = s.userRepo.WithTx(tx).Create(ctx, model.CreateUserParams{
			Email:        email,
			Name:         params.Name,
			PasswordHash: passwordHash,
			AccessCodeID: ac.ID,
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return apperrors.AccountAlreadyExists()
			}
			return apperrors.Database(err)
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.AsAppError(err); !ok {
			// The commit itself failed after both writes succeeded. The
			// transaction rolled back, so the code is still redeemable, but
			// the caller saw a failure mid-redemption; log with full context.
			log.Error().Err(err).
				Str("codeId", ac.ID).
				Str("email", email).
				Msg("partial redemption failure: signup transaction aborted")
			return nil, apperrors.Internal("Signup failed").WithCause(err)
		}
		return nil, err
	}

	log.Info().
		Str("userId", user.ID).
		Str("codeId", ac.ID).
		Str("email", email).
		Msg("access code redeemed, account created")

	return user, nil
}
