package signing

import (
	"context"
	"sync"
	"time"

	"rentrihub/pkg/domain"
)

// CacheKey scopes a cached bearer token. Keying by certificate and audience
// keeps concurrent requests signed by different certificates from
// cross-contaminating in multi-tenant deployments.
type CacheKey struct {
	CertificateID domain.CertificateID
	Audience      string
}

// CachedToken is a signed bearer token plus its expiry instant.
type CachedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenCache stores bearer tokens between requests. Implementations must be
// safe for concurrent use. A failing cache must degrade to a miss, never
// block signing.
type TokenCache interface {
	Get(ctx context.Context, key CacheKey) (CachedToken, bool)
	Set(ctx context.Context, key CacheKey, token CachedToken)
}

// MemoryCache is the default in-process TokenCache.
type MemoryCache struct {
	mu     sync.RWMutex
	tokens map[CacheKey]CachedToken
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{tokens: make(map[CacheKey]CachedToken)}
}

func (c *MemoryCache) Get(_ context.Context, key CacheKey) (CachedToken, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.tokens[key]
	return token, ok
}

func (c *MemoryCache) Set(_ context.Context, key CacheKey, token CachedToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = token
}
