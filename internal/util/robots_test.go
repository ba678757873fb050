package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestRobotsChecker_Rules(t *testing.T) {
	var hits atomic.Int32
	server := robotsServer(t, http.StatusOK, "User-agent: claimex\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n", &hits)
	defer server.Close()

	checker := NewRobotsChecker("claimex/0.1 (+https://github.com/ppiankov/claimex)", server.Client(), time.Minute)
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/news/article")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/page")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int32(1), hits.Load(), "robots.txt is fetched once per host")
}

func TestRobotsChecker_StatusHandling(t *testing.T) {
	ctx := context.Background()

	missing := robotsServer(t, http.StatusNotFound, "", nil)
	defer missing.Close()
	allowed, _, err := NewRobotsChecker("claimex", missing.Client(), 0).CanFetch(ctx, missing.URL+"/any")
	require.NoError(t, err)
	assert.True(t, allowed)

	broken := robotsServer(t, http.StatusServiceUnavailable, "", nil)
	defer broken.Close()
	allowed, _, err = NewRobotsChecker("claimex", broken.Client(), 0).CanFetch(ctx, broken.URL+"/any")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRobotsChecker_Unreachable(t *testing.T) {
	checker := NewRobotsChecker("claimex", &http.Client{Timeout: time.Second}, 0)
	allowed, _, err := checker.CanFetch(context.Background(), "http://127.0.0.1:1/page")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_BadURL(t *testing.T) {
	checker := NewRobotsChecker("claimex", nil, 0)
	_, _, err := checker.CanFetch(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
	_, _, err = checker.CanFetch(context.Background(), "::not a url")
	assert.Error(t, err)
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "claimex", NormalizeUserAgent("claimex/0.1 (+https://github.com/ppiankov/claimex)"))
	assert.Equal(t, "curl", NormalizeUserAgent("curl"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}
