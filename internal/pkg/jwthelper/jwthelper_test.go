package jwthelper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	key := []byte("secret")

	token, err := GenerateToken(key, 42, "test-agent", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "test-agent", claims.UserAgent)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseToken_Rejects(t *testing.T) {
	key := []byte("secret")

	expired, err := GenerateToken(key, 1, "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(key, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := GenerateToken([]byte("other"), 1, "", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(key, other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, UserClaims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(key, none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(key, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
