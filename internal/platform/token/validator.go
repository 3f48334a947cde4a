// Package token validates the HMAC-signed access tokens issued by the
// platform's auth service. This engine only verifies; it never issues.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"conveyo/internal/platform/middleware"
)

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Validator checks token signatures and expiry against a shared secret.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired(), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return &middleware.JWTClaims{Subject: c.Subject, Role: c.Role}, nil
}
