/**
 * @description
 * Session tokens for the dashboard-facing API: HS256 JWTs carrying the
 * user's email and role. The signing secret is configured or, by default,
 * generated at process start; that invalidates outstanding sessions on
 * restart, which is acceptable for an operations console.
 *
 * @dependencies
 * - crypto/rand, errors, time: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Token signing and verification.
 */

package users

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// SessionClaims is what a verified token asserts about its bearer.
type SessionClaims struct {
	Email string
	Role  string
}

// TokenManager issues and verifies session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a manager. An empty secret gets a random one,
// scoped to this process.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 48)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: key, ttl: ttl}, nil
}

// Issue creates a signed session token for a user.
func (m *TokenManager) Issue(email, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  email,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	})
	return token.SignedString(m.secret)
}

// Verify parses a token and returns its claims, rejecting anything not
// signed by this manager with HS256.
func (m *TokenManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	email, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if email == "" {
		return nil, ErrInvalidToken
	}
	return &SessionClaims{Email: email, Role: role}, nil
}
