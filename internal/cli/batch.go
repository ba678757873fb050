package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimex/internal/extract"
	"github.com/ppiankov/claimex/internal/llm"
	"github.com/ppiankov/claimex/internal/pipeline"
	"github.com/ppiankov/claimex/internal/worker"
)

var (
	concurrency  int
	batchRPS     float64
	batchTimeout time.Duration
	batchURLs    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Extract claims from many texts in parallel",
	Long: `Batch reads one text per line (blank lines are skipped) and runs an
independent extraction for each on a worker pool. Backend calls are
rate-limited, and while the backend is unreachable the remaining items
fail fast. Results are printed as JSON lines in input order.

Use - to read lines from stdin, and --urls to treat every line as a page
to fetch (lines starting with # are then skipped).

Example:
  claimex batch sentences.txt
  claimex batch sentences.txt --concurrency 8 --rps 5
  claimex batch pages.txt --urls --batch-timeout 20m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().Float64Var(&batchRPS, "rps", 0, "backend requests per second (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 10*time.Minute, "total timeout for the batch")
	batchCmd.Flags().BoolVar(&batchURLs, "urls", false, "treat each line as a URL to fetch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if batchRPS > 0 {
		cfg.Concurrency.RequestsPerSecond = batchRPS
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Output.Verbose)

	var lines []string
	if args[0] == "-" {
		lines, err = worker.ReadLinesFrom(cmd.InOrStdin(), batchURLs)
	} else {
		lines, err = worker.ReadLines(args[0], batchURLs)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	// Items are gated on the cached health; a failed call forgets it
	health := llm.NewHealthCache(cfg.Backend.HealthTTL)
	extractor, err := newExtractor(cfg, logger, extract.WithHealthCache(health))
	if err != nil {
		return err
	}
	backend := extractor.Backend()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	if err := health.Check(ctx, backend); err != nil {
		logger.Warn("backend availability check failed", "backend", backend.Name(), "error", err)
	}

	p := pipeline.NewPipeline(cfg, extractor, logger)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst).
		WithBackendKey(worker.BackendKey(backend.Name(), extractor.Model())).
		WithHealthCheck(func(ctx context.Context) error {
			return health.Check(ctx, backend)
		})

	logger.Info("batch started", "items", len(lines), "workers", cfg.Concurrency.Workers, "urls", batchURLs)

	var results []*worker.ExtractResult
	if batchURLs {
		results = processor.ProcessURLs(ctx, lines)
	} else {
		results = processor.ProcessTexts(ctx, lines)
	}

	failures := 0
	claims := 0
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Error != nil {
			failures++
		}
		claims += r.Claims().Len()
		o := newClaimsOutput(r.Result, r.Error)
		if o.Source == "" {
			o.Source = r.Source
		}
		if err := writeLine(out, o); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	logger.Info("batch complete", "items", len(results), "failures", failures, "claims", claims)
	if failures > 0 {
		return fmt.Errorf("%d of %d items failed", failures, len(results))
	}
	return nil
}
