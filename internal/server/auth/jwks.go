// Package auth verifies identity tokens issued by an external provider.
// Signing keys are fetched from the provider's JWKS endpoint and cached
// with a TTL; verification is full RS256 signature checking plus issuer,
// audience, and token-use claims.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/mediavault/mediavault/internal/common"
)

// DefaultKeyTTL is how long fetched signing keys stay fresh.
const DefaultKeyTTL = 1 * time.Hour

// jwksDocument mirrors the JWKS wire format.
type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeyCache fetches and caches the provider's RSA public keys. It owns its
// TTL and refresh lock; one instance is constructed per process and handed
// to the verifier. A failed refresh falls back to the cached copy so key
// endpoint downtime does not immediately break verification.
type KeyCache struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu     sync.Mutex
	keys   map[string]*rsa.PublicKey
	expiry time.Time
}

func NewKeyCache(url string, ttl time.Duration) *KeyCache {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	return &KeyCache{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Key returns the public key for kid. An unknown kid forces one refresh
// before failing, so freshly rotated provider keys are picked up without
// waiting out the TTL.
func (c *KeyCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureFreshLocked(ctx); err != nil {
		return nil, err
	}

	if key, ok := c.keys[kid]; ok {
		return key, nil
	}

	if err := c.refreshLocked(ctx); err != nil {
		return nil, err
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}

	return nil, fmt.Errorf("%w: unknown signing key %q", common.ErrInvalidToken, kid)
}

func (c *KeyCache) ensureFreshLocked(ctx context.Context) error {
	if c.keys != nil && time.Now().Before(c.expiry) {
		return nil
	}

	if err := c.refreshLocked(ctx); err != nil {
		// Stale keys beat no keys.
		if c.keys != nil {
			return nil
		}
		return err
	}
	return nil
}

func (c *KeyCache) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching signing keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching signing keys: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decoding signing keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.keys = keys
	c.expiry = time.Now().Add(c.ttl)
	return nil
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: e,
	}, nil
}
