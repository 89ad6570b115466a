// Package auth signs the session cookie and hashes registration passwords.
//
// WHAT DOES THE SESSION TOKEN IDENTIFY?
// The session cookie is an HS256 JWT whose subject is the visitor's
// workspace id. It identifies a browser, not a person: signing in and out
// only changes the workspace the token points at, never the token itself.
//
// JWT STRUCTURE (three base64url parts joined by dots):
//
//	header.payload.signature
//	  |       |        |
//	  |       |        HMAC-SHA256(header + "." + payload, secret)
//	  |       claims: sub (workspace id), iss, iat, exp
//	  alg + typ
//
// Anyone can decode the payload, so nothing secret goes in it. The
// signature is what stops a visitor from pointing their cookie at another
// visitor's workspace.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer is stamped into every token and required on the way back in.
// Tokens minted by another app that happens to share the secret are rejected.
const issuer = "hoverspeak"

// TokenService issues and validates session tokens.
//
// The secret and TTL are injected (rather than read from globals) so tests
// can mint short-lived or already-expired tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// Session is what a valid token says about its bearer.
type Session struct {
	// WorkspaceID is the token's subject.
	WorkspaceID string

	// ExpiresAt is when the token stops being accepted. The session
	// middleware compares it with the TTL to decide when to re-issue.
	ExpiresAt time.Time
}

// NewTokenService returns a TokenService signing with secret. Secrets
// shorter than 16 characters are rejected.
//
// WHY A MINIMUM LENGTH?
// HS256 is only as strong as its key. A short secret can be brute-forced
// offline from a single captured cookie, after which any token can be forged.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a token for the workspace using the configured TTL.
func (s *TokenService) Generate(workspaceID string) (string, error) {
	return s.GenerateWithDuration(workspaceID, s.ttl)
}

// GenerateWithDuration issues a token that expires after d.
//
// A negative d yields a token that is already expired, which is how the
// tests exercise the expiry path without sleeping.
func (s *TokenService) GenerateWithDuration(workspaceID string, d time.Duration) (string, error) {
	now := time.Now()

	// REGISTERED CLAIMS:
	// jwt.RegisteredClaims covers the standard fields (sub, iss, iat, exp).
	// We have no custom claims, so there's no need for our own claims struct.
	c := jwt.RegisteredClaims{
		Subject:   workspaceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate checks the signature, issuer and expiry and returns the
// session the token describes.
//
// ALGORITHM PINNING:
// The keyfunc refuses anything but HMAC, and WithValidMethods narrows it
// further to HS256. Without this a forged token could claim "alg": "none"
// and skip the signature check entirely.
func (s *TokenService) Validate(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		// A token without "exp" would otherwise be accepted forever.
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, fmt.Errorf("auth: token expired")
		}
		return Session{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return Session{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Session{}, fmt.Errorf("auth: token has no subject")
	}

	// WithExpirationRequired guarantees ExpiresAt is set by this point.
	return Session{WorkspaceID: c.Subject, ExpiresAt: c.ExpiresAt.Time}, nil
}
