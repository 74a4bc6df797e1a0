package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "altguard/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "altguard-test")

func Test_GenerateModeratorToken(t *testing.T) {
	token, err := jwtService.GenerateModeratorToken("mod-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mod-1", claims.Subject)
	assert.Equal(t, RoleModerator, claims.Role)
	assert.NotEmpty(t, claims.JTI)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateModeratorToken("mod-1", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func Test_ValidateToken_WrongKeyOrIssuer(t *testing.T) {
	other := NewJWTService("other-key", "altguard-test")
	token, err := other.GenerateModeratorToken("mod-1", time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	otherIssuer := NewJWTService("test-signing-key", "someone-else")
	token, err = otherIssuer.GenerateModeratorToken("mod-1", time.Hour)
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: RoleModerator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mod-1",
			Issuer:    "altguard-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
