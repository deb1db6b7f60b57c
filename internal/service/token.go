package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/foyerhq/foyer-server/internal/model"
)

const bridgeTokenTTL = time.Hour

// BridgeClaims are the claims carried in tokens minted for the backend API.
type BridgeClaims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenBridge mints short-lived JWTs that the separate backend accepts, so
// a session established here does not require a second sign-in there.
type TokenBridge struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenBridge creates a new token bridge
func NewTokenBridge(secret, issuer, audience string) *TokenBridge {
	return &TokenBridge{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// Mint signs a token for the given user.
func (b *TokenBridge) Mint(user *model.User) (string, error) {
	now := time.Now()
	claims := BridgeClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    b.issuer,
			Audience:  jwt.ClaimStrings{b.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(bridgeTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(b.secret)
}

// Validate parses and verifies a bridge token.
func (b *TokenBridge) Validate(tokenString string) (*BridgeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &BridgeClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return b.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*BridgeClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
