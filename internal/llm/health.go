package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// HealthCache remembers backend availability checks for a TTL, so every
// item of a batch can be gated on the backend without pinging it each time.
// Only reachability is cached, never extraction results.
type HealthCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewHealthCache creates a health cache
func NewHealthCache(ttl time.Duration) *HealthCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HealthCache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Check returns the cached Ping outcome for the backend, pinging on a miss.
// Failures are cached too, with half the TTL.
func (h *HealthCache) Check(ctx context.Context, backend Backend) error {
	key := healthKey(backend)
	if val, found := h.cache.Get(key); found {
		if val == nil {
			return nil
		}
		return val.(error)
	}

	err := backend.Ping(ctx)
	if err != nil {
		// Context cancellation says nothing about the backend
		if ctx.Err() == nil {
			h.cache.Set(key, err, h.ttl/2)
		}
		return err
	}
	h.cache.Set(key, nil, h.ttl)
	return nil
}

// Forget drops the cached outcome for a backend, so the next Check pings again
func (h *HealthCache) Forget(backend Backend) {
	h.cache.Delete(healthKey(backend))
}

// healthKey generates a cache key from backend identity
func healthKey(backend Backend) string {
	hash := sha256.Sum256([]byte(backend.Name() + "\x00" + backend.Model()))
	return "claimex:health:v1:" + hex.EncodeToString(hash[:])
}
