// Package auth handles identity: JWT access tokens, bcrypt password hashes,
// GitHub sign-in, and the HTTP middleware that puts the caller's user ID in
// the request context.
//
// AUTHENTICATION FLOW:
//  1. The user registers or logs in (email + password), or signs in with GitHub
//  2. The server issues a signed JWT whose subject is the user ID
//  3. The token comes back on every API call, either as
//     "Authorization: Bearer <jwt>" (API clients) or the HttpOnly "token"
//     cookie (browsers)
//  4. RequireAuth validates it and stores the user ID in the context
//
// Tokens are stateless: validation needs only the secret, never the database.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to and required on every token.
const Issuer = "skill-tracker"

// DefaultTokenTTL applies when NewTokenService gets a non-positive TTL.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrTokenExpired is returned by Validate for a well-formed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and validates HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService rejects secrets shorter than 16 characters; HMAC is only
// as strong as its key.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration { return s.ttl }

type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for userID with the service's TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token valid for d. Tests pass a negative d
// to mint expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer and expiry, and returns the
// user ID from the subject claim.
//
// ALGORITHM PINNING:
// WithValidMethods rejects "alg":"none" and RS/HS confusion attacks; only
// HS256 tokens signed with our secret pass.
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
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}
