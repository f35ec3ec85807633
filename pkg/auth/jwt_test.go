package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

func testKeyfunc(_ *jwt.Token) (any, error) {
	return testSigningKey, nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewStaticVerifier(testKeyfunc, 0, "")

	token := signToken(t, jwt.MapClaims{
		"sub":         "user-1",
		"email":       "user1@example.com",
		"custom:role": "admin",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user1@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestVerifyDefaultsToViewer(t *testing.T) {
	v := NewStaticVerifier(testKeyfunc, 0, "")

	token := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, claims.Role)

	token = signToken(t, jwt.MapClaims{
		"sub":         "user-1",
		"custom:role": "superuser",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	claims, err = v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, claims.Role)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewStaticVerifier(testKeyfunc, 0, "")

	// Expired.
	expired := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err := v.Verify(expired)
	assert.Error(t, err)

	// Missing expiration.
	noExp := signToken(t, jwt.MapClaims{"sub": "user-1"})
	_, err = v.Verify(noExp)
	assert.Error(t, err)

	// Missing subject.
	noSub := signToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = v.Verify(noSub)
	assert.Error(t, err)

	// Garbage.
	_, err = v.Verify("not-a-token")
	assert.Error(t, err)
}

func TestVerifyEnforcesIssuer(t *testing.T) {
	v := NewStaticVerifier(testKeyfunc, 0, "https://issuer.example.com")

	wrongIssuer := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": "https://rogue.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err := v.Verify(wrongIssuer)
	assert.Error(t, err)

	rightIssuer := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": "https://issuer.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = v.Verify(rightIssuer)
	assert.NoError(t, err)
}
