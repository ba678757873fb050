package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/claimex/internal/model"
	"github.com/ppiankov/claimex/internal/pipeline"
)

// Runner is the part of pipeline.Pipeline a batch needs
type Runner interface {
	ExtractText(ctx context.Context, source, text string) pipeline.Result
	ExtractURL(ctx context.Context, rawURL string) (pipeline.Result, error)
	CrawlDelay(ctx context.Context, rawURL string) time.Duration
}

// HealthCheck reports whether the extraction backend is usable; a non-nil
// error fails the item without calling it
type HealthCheck func(ctx context.Context) error

// Item is one batch input: either literal text or a URL to fetch
type Item struct {
	Source string
	Text   string
	URL    string
}

// ExtractJob extracts claims from one batch item
type ExtractJob struct {
	Index      int
	Item       Item
	Runner     Runner
	Limiter    *Limiter
	BackendKey string
	Health     HealthCheck
}

// Execute runs the job; limiter waits honour ctx
func (j *ExtractJob) Execute(ctx context.Context) Result {
	res := &ExtractResult{Index: j.Index, Source: j.Item.Source}

	if j.Health != nil {
		if err := j.Health(ctx); err != nil {
			res.Error = fmt.Errorf("backend unavailable: %w", err)
			return res
		}
	}

	if j.Item.URL != "" {
		if hostKey, err := HostKey(j.Item.URL); err == nil {
			delay := j.Runner.CrawlDelay(ctx, j.Item.URL)
			if err := j.Limiter.WaitWithCrawlDelay(ctx, hostKey, delay); err != nil {
				res.Error = fmt.Errorf("rate limit: %w", err)
				return res
			}
		}
	}
	if err := j.Limiter.Wait(ctx, j.BackendKey); err != nil {
		res.Error = fmt.Errorf("rate limit: %w", err)
		return res
	}

	if j.Item.URL != "" {
		out, err := j.Runner.ExtractURL(ctx, j.Item.URL)
		res.Result = out
		res.Error = err
		return res
	}

	res.Result = j.Runner.ExtractText(ctx, j.Item.Source, j.Item.Text)
	return res
}

// ExtractResult is the outcome of one ExtractJob
type ExtractResult struct {
	Index  int
	Source string
	Result pipeline.Result
	Error  error
}

// GetError returns the job error
func (r *ExtractResult) GetError() error {
	return r.Error
}

// Claims returns the extracted claims, empty on error
func (r *ExtractResult) Claims() model.ClaimSet {
	if r.Result.Claims == nil {
		return model.NewClaimSet()
	}
	return r.Result.Claims
}

// BatchProcessor runs independent extraction calls concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
	limiter     *Limiter
	backendKey  string
	health      HealthCheck
}

// NewBatchProcessor creates a batch processor. requestsPerSecond and burst
// bound backend calls; zero means unlimited.
func NewBatchProcessor(runner Runner, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
		backendKey:  BackendKey("default", ""),
	}
}

// WithBackendKey sets the limiter key extraction calls are counted against
func (b *BatchProcessor) WithBackendKey(key string) *BatchProcessor {
	b.backendKey = key
	return b
}

// WithHealthCheck gates every item on check
func (b *BatchProcessor) WithHealthCheck(check HealthCheck) *BatchProcessor {
	b.health = check
	return b
}

// ProcessTexts extracts claims from each text; results keep input order
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*ExtractResult {
	items := make([]Item, len(texts))
	for i, text := range texts {
		items[i] = Item{Source: "line " + strconv.Itoa(i+1), Text: text}
	}
	return b.ProcessItems(ctx, items)
}

// ProcessURLs fetches each URL and extracts claims from its text; results keep input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*ExtractResult {
	items := make([]Item, len(urls))
	for i, u := range urls {
		items[i] = Item{Source: u, URL: u}
	}
	return b.ProcessItems(ctx, items)
}

// ProcessItems runs one job per item on the worker pool
func (b *BatchProcessor) ProcessItems(ctx context.Context, items []Item) []*ExtractResult {
	if len(items) == 0 {
		return []*ExtractResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, item := range items {
		job := &ExtractJob{
			Index:      i,
			Item:       item,
			Runner:     b.runner,
			Limiter:    b.limiter,
			BackendKey: b.backendKey,
			Health:     b.health,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*ExtractResult, len(items))
	for _, r := range results {
		er := r.(*ExtractResult)
		out[er.Index] = er
	}
	// Items never run because ctx ended first
	for i := range out {
		if out[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = &ExtractResult{Index: i, Source: items[i].Source, Error: err}
		}
	}
	return out
}

// ReadLines reads non-blank lines from a file, trimmed. With skipComments,
// lines starting with # are dropped too.
func ReadLines(filePath string, skipComments bool) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadLinesFrom(file, skipComments)
}

// ReadLinesFrom is ReadLines over any reader, such as stdin
func ReadLinesFrom(r io.Reader, skipComments bool) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if skipComments && strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return lines, nil
}
