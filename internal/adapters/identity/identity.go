// Package identity verifies bearer tokens issued by the external identity
// provider and turns them into a Principal.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is wrapped by every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller as the identity provider sees them.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// Claims are the token claims the app reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) principal() (Principal, error) {
	if c.Subject == "" {
		return Principal{}, fmt.Errorf("%w: subject claim is missing", ErrInvalidToken)
	}
	return Principal{UID: c.Subject, Email: c.Email, DisplayName: c.Name}, nil
}

func parserOptions(issuer, audience string, methods ...string) []jwt.ParserOption {
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

// HMACVerifier accepts HS256 tokens signed with a shared secret. It serves
// development and tests, where no identity provider is reachable.
type HMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewHMACVerifier creates a verifier for a shared secret.
func NewHMACVerifier(secret, issuer, audience string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

// Verify implements Verifier.
func (v *HMACVerifier) Verify(_ context.Context, raw string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOptions(v.issuer, v.audience, jwt.SigningMethodHS256.Alg())...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.principal()
}

// Issue signs an HS256 token for p. Used by the dev CLI and tests.
func (v *HMACVerifier) Issue(p Principal, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Email: p.Email,
		Name:  p.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
