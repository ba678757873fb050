package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/claimex/internal/model"
	"github.com/ppiankov/claimex/internal/pipeline/adapters"
)

// ClaimExtractor is the part of extract.Extractor the pipeline needs
type ClaimExtractor interface {
	Extract(ctx context.Context, text string) model.ClaimSet
}

// Pipeline turns text or a web page into claims, one extraction call per input
type Pipeline struct {
	fetcher   *Fetcher
	adapters  *adapters.Registry
	extractor ClaimExtractor
	logger    *slog.Logger
}

// Result is the outcome of one pipeline run
type Result struct {
	Source  string         `json:"source" yaml:"source"`
	Subject string         `json:"subject,omitempty" yaml:"subject,omitempty"`
	Fetch   *FetchMeta     `json:"fetch,omitempty" yaml:"fetch,omitempty"`
	Claims  model.ClaimSet `json:"-" yaml:"-"`
}

// NewPipeline creates a pipeline. A nil logger discards output.
func NewPipeline(cfg *model.Config, extractor ClaimExtractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		fetcher: NewFetcher(
			cfg.Fetch.Timeout,
			cfg.Fetch.UserAgent,
			cfg.Fetch.MaxBodyBytes,
			cfg.Fetch.RespectRobots,
			cfg.Backend.HTTPProxy,
			cfg.Backend.HTTPSProxy,
			"",
		),
		adapters:  adapters.NewRegistry(),
		extractor: extractor,
		logger:    logger,
	}
}

// ExtractText extracts claims from text supplied directly
func (p *Pipeline) ExtractText(ctx context.Context, source, text string) Result {
	return Result{
		Source: source,
		Claims: p.extractor.Extract(ctx, text),
	}
}

// CrawlDelay returns the robots.txt crawl delay for rawURL's host
func (p *Pipeline) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	return p.fetcher.CrawlDelay(ctx, rawURL)
}

// ExtractURL fetches a page, reduces it to visible text and extracts claims.
// Fetch failures are returned; extraction failures yield an empty set.
func (p *Pipeline) ExtractURL(ctx context.Context, rawURL string) (Result, error) {
	fetched, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return Result{Source: rawURL}, fmt.Errorf("fetch page: %w", err)
	}
	if fetched.Meta.Truncated {
		p.logger.Warn("page truncated", "url", fetched.FinalURL, "max_bytes", p.fetcher.maxBytes)
	}

	text, adapter := fetched.HTML, "plain"
	if fetched.IsHTML() {
		text, adapter, err = PageText(p.adapters, fetched.FinalURL, fetched.Meta.ContentType, fetched.HTML)
		if err != nil {
			return Result{Source: rawURL}, fmt.Errorf("parse HTML: %w", err)
		}
	}
	text = strings.TrimSpace(text)

	p.logger.Debug("page fetched",
		"url", fetched.FinalURL,
		"status", fetched.Meta.StatusCode,
		"adapter", adapter,
		"text_runes", len([]rune(text)),
	)

	meta := fetched.Meta
	return Result{
		Source:  fetched.FinalURL,
		Subject: fetched.Subject,
		Fetch:   &meta,
		Claims:  p.extractor.Extract(ctx, text),
	}, nil
}
