// Package auth provides session tokens, password hashing, the GitHub OAuth
// provider, and the HTTP middleware that turns a cookie into a user identity.
//
// SESSION FLOW:
//  1. User registers or logs in (email/password, or GitHub OAuth)
//  2. Server issues a signed JWT and stores it in an HttpOnly cookie
//  3. On later requests, middleware reads the cookie, validates the JWT,
//     and sets the userID in the request context
//
// JWT is stateless — everything needed (userID, expiry) lives inside the
// signed token, so no session table and no DB lookup on validation. The
// signature prevents tampering without the secret key.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "tasklist"

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used to sign and verify tokens — same key for both, keep it safe.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the "sub" (Subject) claim carries the
// internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new access token for the given userID.
// Lifetime is 24 hours — a task list is a low-stakes session, and forcing
// a daily login is plenty.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, 24*time.Hour)
}

// GenerateWithDuration creates a token with a custom expiry. Tests use this
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the userID from the
// "sub" claim.
//
// The jwt library checks signature, expiry, and issuer. We additionally pin
// the algorithm to HS256 — without jwt.WithValidMethods an attacker could
// try an algorithm-confusion token and hope the library accepts it.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
