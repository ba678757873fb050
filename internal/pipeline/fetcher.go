package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ppiankov/claimex/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

const fetchAttempts = 3

// StatusError is a non-2xx page response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// transportError is a failure to get any response at all
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return "fetch: " + e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}

// fetchRetryDelay is the base backoff between fetch attempts; tests shorten it
var fetchRetryDelay = 500 * time.Millisecond

// Fetcher fetches pages whose text is sent for extraction
type Fetcher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a Fetcher. With respectRobots set, every fetch is
// checked against the host's robots.txt first.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
	}
	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, client, util.DefaultRobotsTTL)
	}
	return f
}

// FetchMeta carries response details worth reporting
type FetchMeta struct {
	StatusCode   int    `json:"status_code" yaml:"status_code"`
	ContentType  string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	Truncated    bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// FetchResult contains the fetched body and metadata
type FetchResult struct {
	HTML     string
	Meta     FetchMeta
	Subject  string
	FinalURL string
}

// IsHTML reports whether the body should be reduced to visible text
func (r *FetchResult) IsHTML() bool {
	ct := strings.ToLower(r.Meta.ContentType)
	return ct == "" || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

// FetchWithRetry fetches rawURL, retrying transient failures with backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var result *FetchResult
	err := retry.Do(
		func() error {
			var err error
			result, err = f.Fetch(ctx, rawURL)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(fetchRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryableFetchError),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CrawlDelay returns the robots.txt crawl delay for rawURL's host, zero when
// robots.txt is not respected or names none
func (f *Fetcher) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	if f.robots == nil {
		return 0
	}
	_, delay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return 0
	}
	return delay
}

// Fetch retrieves rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		allowed, _, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	meta := FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	// Read one byte past the limit to detect truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		body = body[:f.maxBytes]
		meta.Truncated = true
	}

	finalURL := resp.Request.URL.String()

	return &FetchResult{
		HTML:     string(body),
		Meta:     meta,
		Subject:  extractSubject(finalURL),
		FinalURL: finalURL,
	}, nil
}

// isRetryableFetchError reports whether a fetch error is worth another attempt
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	var transportErr *transportError
	return errors.As(err, &transportErr)
}

// extractSubject extracts a human-readable subject from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	last = strings.NewReplacer("_", " ", "-", " ").Replace(last)

	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}
	return last
}
