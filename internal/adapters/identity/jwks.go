package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWKS represents the JSON Web Key Set structure
type JWKS struct {
	Keys []JSONWebKey `json:"keys"`
}

// JSONWebKey represents a single key in the JWKS
type JSONWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSConfig configures a JWKSVerifier.
type JWKSConfig struct {
	URL      string
	Issuer   string
	Audience string
	Refresh  time.Duration // minimum age before the key set is fetched again
}

// JWKSVerifier accepts RS256 tokens signed by any key in the provider's key set.
// Keys are cached and refetched when an unknown kid shows up and the cache is
// older than Refresh.
type JWKSVerifier struct {
	cfg    JWKSConfig
	client *resty.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time
}

// NewJWKSVerifier creates a verifier. No network call is made until the first
// Verify or Refresh.
func NewJWKSVerifier(cfg JWKSConfig) *JWKSVerifier {
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Hour
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &JWKSVerifier{
		cfg:    cfg,
		client: client,
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// Refresh fetches the key set unconditionally.
func (v *JWKSVerifier) Refresh(ctx context.Context) error {
	var jwks JWKS
	resp, err := v.client.R().SetContext(ctx).SetResult(&jwks).Get(v.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode())
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}
		publicKey, err := buildRSAPublicKey(key)
		if err != nil {
			zap.L().Warn("identity_event", zap.String("event", "jwk_rejected"), zap.String("kid", key.Kid), zap.Error(err))
			continue
		}
		keys[key.Kid] = publicKey
	}

	v.mu.Lock()
	v.keys = keys
	v.lastFetch = time.Now()
	v.mu.Unlock()

	zap.L().Info("identity_event", zap.String("event", "jwks_refreshed"), zap.Int("key_count", len(keys)))
	return nil
}

func buildRSAPublicKey(key JSONWebKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, fmt.Errorf("empty modulus or exponent")
	}

	n := new(big.Int).SetBytes(nBytes)
	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	return &rsa.PublicKey{N: n, E: e}, nil
}

func (v *JWKSVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	stale := time.Since(v.lastFetch) >= v.cfg.Refresh
	v.mu.RUnlock()
	if ok {
		return key, nil
	}
	if !stale {
		return nil, fmt.Errorf("key with kid %q not found in JWKS", kid)
	}

	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("key with kid %q not found in JWKS", kid)
	}
	return key, nil
}

// Verify implements Verifier.
func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("token missing 'kid' header")
		}
		return v.publicKey(ctx, kid)
	}, parserOptions(v.cfg.Issuer, v.cfg.Audience, jwt.SigningMethodRS256.Alg())...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.principal()
}
