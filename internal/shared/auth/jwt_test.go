package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	token, err := SignJWT("user-42", time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Sub)
	assert.Greater(t, claims.Exp, claims.Iat)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	token, err := SignJWT("user-42", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	_, err = VerifyJWT(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)

	t.Setenv("JWT_SECRET", "other")
	_, err = VerifyJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENV", "production")
	_, err := SignJWT("user-42", time.Hour)
	assert.ErrorIs(t, err, errMissingSecret)
}
