// Package auth verifies the bearer credential presented during the
// websocket handshake and resolves it to a stable user identifier.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized covers every credential failure: missing, malformed,
// expired, wrong signing method, or a valid token with no user id claim.
var ErrUnauthorized = errors.New("unauthorized")

// idClaims are checked in order; the first non-empty string wins.
var idClaims = []string{"sub", "id", "userId"}

// Verifier validates HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses and validates the token and extracts the user identifier.
func (v *Verifier) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid claims", ErrUnauthorized)
	}
	for _, key := range idClaims {
		if s, ok := claims[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: token carries no user id", ErrUnauthorized)
}

// FromBearer extracts the token from an "Authorization: Bearer <token>"
// header value.
func FromBearer(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: invalid authorization header", ErrUnauthorized)
	}
	return parts[1], nil
}
