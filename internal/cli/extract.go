package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimex/internal/pipeline"
)

var (
	inputFile    string
	inputURL     string
	outputFormat string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract claims from text, a file, stdin or a web page",
	Long: `Extract sends one text to the extraction backend and prints the claims
found in it, one per line. Compound sentences are split into atomic facts;
questions and opinions are ignored.

The credential is read from --api-key, then GEMINI_API_KEY, then
GOOGLE_API_KEY (OPENAI_API_KEY / ANTHROPIC_API_KEY for other backends).

Example:
  claimex extract "Moscow is the capital of Russia with 12 million people."
  claimex extract --file article.txt --format json
  cat article.txt | claimex extract -
  claimex extract --url https://en.wikipedia.org/wiki/Moscow --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read text from file")
	extractCmd.Flags().StringVar(&inputURL, "url", "", "fetch a web page and extract from its visible text")
	extractCmd.Flags().StringVarP(&outputFormat, "format", "o", "", "output format: text, json, yaml (default from config)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if err := validateFormat(cfg.Output.Format); err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Output.Verbose)

	// Read input before touching the backend so usage errors come first
	var source, text string
	if inputURL == "" {
		source, text, err = readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
	} else if len(args) > 0 || inputFile != "" {
		return errors.New("--url cannot be combined with text or --file")
	}

	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, extractor, logger)
	ctx := context.Background()

	var (
		result   pipeline.Result
		fetchErr error
	)
	if inputURL != "" {
		result, fetchErr = p.ExtractURL(ctx, inputURL)
	} else {
		result = p.ExtractText(ctx, source, text)
	}

	if err := writeResult(cmd.OutOrStdout(), cfg.Output.Format, newClaimsOutput(result, fetchErr)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return fetchErr
}

// readInput returns the text to extract from and a label for it
func readInput(stdin io.Reader, args []string) (string, string, error) {
	switch {
	case inputFile != "" && len(args) > 0:
		return "", "", errors.New("pass either text or --file, not both")

	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", "", fmt.Errorf("read input: %w", err)
		}
		return inputFile, string(data), nil

	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", string(data), nil

	case len(args) == 1:
		return "argument", args[0], nil

	default:
		return "", "", errors.New("no input: pass text, --file, --url or - for stdin")
	}
}
