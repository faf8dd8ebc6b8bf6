package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("s3cret", "treasurer", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := VerifyToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "treasurer", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestVerifyTokenRejects(t *testing.T) {
	good, err := GenerateToken("s3cret", "treasurer", RoleAdmin, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("s3cret", "treasurer", RoleAdmin, -time.Minute)
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	foreignStr, err := foreign.SignedString([]byte("s3cret"))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{Role: RoleAdmin})
	noneStr, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {"other", good},
		"expired":      {"s3cret", expired},
		"wrong issuer": {"s3cret", foreignStr},
		"alg none":     {"s3cret", noneStr},
		"garbage":      {"s3cret", "not.a.token"},
		"empty secret": {"", good},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := VerifyToken(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken("", "x", RoleAdmin, time.Hour)
	assert.Error(t, err)
}
