// Package auth issues and checks the admin session. There is a single admin
// whose credentials are injected from configuration.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

// Gate authenticates the admin and validates session tokens.
type Gate struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	issuer   string

	now func() time.Time
}

func NewGate(cfg config.AuthConfig) (*Gate, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, errors.New("admin credentials are not configured")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is not configured")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Gate{
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
		secret:   []byte(cfg.SessionSecret),
		ttl:      ttl,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}, nil
}

// TTL is how long an issued token stays valid.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// Authenticate checks the credentials and, when they match, issues a signed
// session token.
func (g *Gate) Authenticate(username, password string) (string, bool) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !userOK || !passOK {
		authLogger.Warn().Str("username", username).Msg("Rejected login")
		return "", false
	}

	token, err := g.issue()
	if err != nil {
		authLogger.Error().Err(err).Msg("Failed to sign session token")
		return "", false
	}

	authLogger.Info().Str("username", username).Msg("Admin logged in")
	return token, true
}

func (g *Gate) issue() (string, error) {
	now := g.now()
	claims := jwt.RegisteredClaims{
		Issuer:    g.issuer,
		Subject:   g.username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Valid reports whether token is an unexpired session issued by this gate.
func (g *Gate) Valid(token string) bool {
	if token == "" {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(g.issuer),
		jwt.WithSubject(g.username),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		authLogger.Debug().Err(err).Msg("Invalid session token")
		return false
	}
	return parsed.Valid
}
