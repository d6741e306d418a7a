package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	service := NewService("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	token, err := service.GenerateAccessToken(userID, "member")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}

func TestAccessTokenExpired(t *testing.T) {
	service := NewService("test-secret", -time.Minute, 24*time.Hour)

	token, err := service.GenerateAccessToken(uuid.New(), "member")
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	service := NewService("test-secret", 15*time.Minute, 24*time.Hour)
	other := NewService("other-secret", 15*time.Minute, 24*time.Hour)

	token, err := service.GenerateAccessToken(uuid.New(), "member")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	service := NewService("test-secret", 15*time.Minute, 24*time.Hour)

	refresh, _, _, err := service.GenerateRefreshToken(uuid.New())
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := service.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestHashRefreshTokenStable(t *testing.T) {
	assert.Equal(t, HashRefreshToken("abc"), HashRefreshToken("abc"))
	assert.NotEqual(t, HashRefreshToken("abc"), HashRefreshToken("abd"))
	assert.Len(t, HashRefreshToken("abc"), 64)
}
