package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "reader@example.com", "Sara Reader", 15)
	require.NoError(t, err)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "Sara Reader", claims.Name)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 1, "a@b.c", "", 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("other", tok.Token)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 1, "a@b.c", "", -5)
	require.NoError(t, err)

	_, err = ParseAccessToken("s3cret", tok.Token)
	assert.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestPasswordPolicy(t *testing.T) {
	_, err := HashPassword("short", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordLen+1), 4)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	assert.NoError(t, CheckPassword(strings.Repeat("x", MaxPasswordLen)))
}
