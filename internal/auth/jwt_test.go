package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyExtractsSubjectClaim(t *testing.T) {
	req := require.New(t)
	v, err := NewVerifier(testSecret)
	req.NoError(err)

	uid, err := v.Verify(signHS256(t, testSecret, jwt.MapClaims{"sub": "u-123"}))
	req.NoError(err)
	req.Equal("u-123", uid)
}

func TestVerifyClaimFallbackOrder(t *testing.T) {
	req := require.New(t)
	v, _ := NewVerifier(testSecret)

	uid, err := v.Verify(signHS256(t, testSecret, jwt.MapClaims{"id": "u-id"}))
	req.NoError(err)
	req.Equal("u-id", uid)

	uid, err = v.Verify(signHS256(t, testSecret, jwt.MapClaims{"userId": "u-legacy"}))
	req.NoError(err)
	req.Equal("u-legacy", uid)

	// sub wins when several are present
	uid, err = v.Verify(signHS256(t, testSecret, jwt.MapClaims{"sub": "u-sub", "id": "u-id"}))
	req.NoError(err)
	req.Equal("u-sub", uid)
}

func TestVerifyRejections(t *testing.T) {
	req := require.New(t)
	v, _ := NewVerifier(testSecret)

	_, err := v.Verify("")
	req.ErrorIs(err, ErrUnauthorized)

	_, err = v.Verify("not-a-token")
	req.ErrorIs(err, ErrUnauthorized)

	_, err = v.Verify(signHS256(t, "wrong-secret", jwt.MapClaims{"sub": "u"}))
	req.ErrorIs(err, ErrUnauthorized)

	expired := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "u",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = v.Verify(expired)
	req.ErrorIs(err, ErrUnauthorized)

	// valid signature but nothing identifying the user
	_, err = v.Verify(signHS256(t, testSecret, jwt.MapClaims{"role": "admin"}))
	req.ErrorIs(err, ErrUnauthorized)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("")
	require.Error(t, err)
}

func TestFromBearer(t *testing.T) {
	req := require.New(t)

	token, err := FromBearer("Bearer abc.def.ghi")
	req.NoError(err)
	req.Equal("abc.def.ghi", token)

	token, err = FromBearer("bearer abc")
	req.NoError(err)
	req.Equal("abc", token)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, err = FromBearer(header)
		req.ErrorIs(err, ErrUnauthorized, "header %q", header)
	}
}
