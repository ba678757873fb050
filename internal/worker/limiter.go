package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter rate-limits calls per key: one key per backend for extraction
// calls, one per host for page fetches.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter. A non-positive rate means unlimited.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until a call for key is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(key).Wait(ctx)
}

// Allow checks if a call is allowed without waiting
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// WaitWithCrawlDelay is Wait for a host whose robots.txt asks for crawlDelay
// between requests. The key is slowed to one request per crawlDelay unless
// it is already slower.
func (l *Limiter) WaitWithCrawlDelay(ctx context.Context, key string, crawlDelay time.Duration) error {
	if crawlDelay > 0 {
		l.slowDown(key, rate.Every(crawlDelay))
	}
	return l.Wait(ctx, key)
}

func (l *Limiter) slowDown(key string, limit rate.Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, exists := l.limiters[key]; exists && existing.Limit() <= limit {
		return
	}
	l.limiters[key] = rate.NewLimiter(limit, 1)
}

// BackendKey is the limiter key for extraction calls to one backend model
func BackendKey(kind, modelID string) string {
	return "backend:" + kind + "/" + modelID
}

// HostKey is the limiter key for fetches from the host of rawURL
func HostKey(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return "host:" + parsed.Host, nil
}
