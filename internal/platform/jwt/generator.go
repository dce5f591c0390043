// Package jwtmw issues and verifies the HS256 tokens that guard administrative routes.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"candle_catalog/internal/shared/envutil"
)

const (
	// EnvKeyJWTSecret names the environment variable holding the signing secret.
	EnvKeyJWTSecret = "JWT_SECRET"
	// Issuer is stamped into every token and required on verification.
	Issuer = "candle_catalog"
	// RoleAdmin grants access to the administrative routes.
	RoleAdmin = "admin"
)

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("jwt secret is not configured")

// Claims is the token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed JWT for subject carrying role.
	GenerateToken(subject, role string) (string, error)
}

// generator implements the Generator interface.
type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// LoadSecret reads the signing secret from the environment.
func LoadSecret() (string, error) {
	secret := envutil.Get(EnvKeyJWTSecret, "")
	if secret == "" {
		return "", ErrMissingSecret
	}
	return secret, nil
}

// GenerateToken creates a signed JWT token with standard claims.
func (g *generator) GenerateToken(subject, role string) (string, error) {
	if len(g.secret) == 0 {
		return "", ErrMissingSecret
	}
	now := g.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
