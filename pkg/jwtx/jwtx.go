// Package jwtx wraps golang-jwt with the claim set this service embeds in
// its tokens: subject id, email, and roles. Access and refresh tokens use
// separate Signer instances configured with distinct secrets so a leaked
// access-token secret cannot forge refresh tokens.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// verifyLeeway absorbs small clock skew between issuer and verifier.
	verifyLeeway = 30 * time.Second
)

var ErrInvalidToken = errors.New("jwtx: invalid token")

// Claims is the signed claim set carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims

	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Verifier verifies a compact token string and returns its claims.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Signer signs and verifies HS256 tokens with a single secret and TTL.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewSigner(secret []byte, issuer string, ttl time.Duration) Signer {
	return Signer{secret: secret, issuer: issuer, ttl: ttl}
}

// TTL returns the configured token lifetime.
func (s Signer) TTL() time.Duration { return s.ttl }

// Sign produces a compact HS256 token for the given identity at time now.
func (s Signer) Sign(subject, email string, roles []string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: email,
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a compact token against this signer's secret.
// Signature, expiry, and issuer are all checked; every failure collapses to
// ErrInvalidToken so callers cannot distinguish which check failed.
func (s Signer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(verifyLeeway),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
