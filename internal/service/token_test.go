package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foyerhq/foyer-server/internal/model"
)

func TestTokenBridge_MintAndValidate(t *testing.T) {
	bridge := NewTokenBridge("bridge-secret", "foyer", "backend-api")

	user := &model.User{ID: "user-1", Email: "member@example.com", Role: model.RoleUser}

	tokenString, err := bridge.Mint(user)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := bridge.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "member@example.com", claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, "foyer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
	assert.True(t, claims.ExpiresAt.Before(time.Now().Add(bridgeTokenTTL+time.Minute)))
}

func TestTokenBridge_UniqueTokenIDs(t *testing.T) {
	bridge := NewTokenBridge("bridge-secret", "foyer", "backend-api")
	user := &model.User{ID: "user-1", Email: "member@example.com", Role: model.RoleUser}

	first, err := bridge.Mint(user)
	require.NoError(t, err)
	second, err := bridge.Mint(user)
	require.NoError(t, err)

	firstClaims, err := bridge.Validate(first)
	require.NoError(t, err)
	secondClaims, err := bridge.Validate(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestTokenBridge_RejectsWrongSecret(t *testing.T) {
	bridge := NewTokenBridge("bridge-secret", "foyer", "backend-api")
	other := NewTokenBridge("other-secret", "foyer", "backend-api")

	user := &model.User{ID: "user-1", Email: "member@example.com", Role: model.RoleUser}

	tokenString, err := bridge.Mint(user)
	require.NoError(t, err)

	_, err = other.Validate(tokenString)
	require.Error(t, err)
}

func TestTokenBridge_RejectsUnsignedToken(t *testing.T) {
	bridge := NewTokenBridge("bridge-secret", "foyer", "backend-api")

	token := jwt.NewWithClaims(jwt.SigningMethodNone, BridgeClaims{Email: "evil@example.com"})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = bridge.Validate(tokenString)
	require.Error(t, err)
}
