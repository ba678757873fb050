package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimex/internal/credential"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that a credential is configured and the backend answers",
	Long: `Verify reports which credential source is in use (redacted) and
performs one lightweight call against the backend. No text is sent.

Example:
  claimex verify
  claimex verify --backend openai`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Output.Verbose)
	out := cmd.OutOrStdout()

	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		var cfgErr *credential.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(out, "✗ credential: not set (checked %v)\n", cfgErr.Sources)
		}
		return err
	}

	backend := extractor.Backend()
	fmt.Fprintf(out, "✓ credential: %s from %s\n", extractor.Credential(), extractor.Credential().Source())
	fmt.Fprintf(out, "  backend:    %s\n", backend.Name())
	fmt.Fprintf(out, "  model:      %s\n", extractor.Model())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := backend.Ping(ctx); err != nil {
		fmt.Fprintf(out, "✗ backend:    unreachable (%v)\n", err)
		return fmt.Errorf("backend check failed: %w", err)
	}
	fmt.Fprintf(out, "✓ backend:    reachable (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}
