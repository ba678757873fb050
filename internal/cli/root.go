package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimex/internal/extract"
	"github.com/ppiankov/claimex/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	backendKind    string
	backendModel   string
	apiKey         string
	backendTimeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimex",
	Short: "claimex - extract atomic, verifiable claims from text",
	Long: `claimex turns natural-language text into a set of atomic factual claims.

Text is sent to a schema-guided extraction backend (Gemini by default) with
a fixed instruction and few-shot examples. Whatever shape the backend
returns is normalized into a deduplicated set of claims; fragments shorter
than 10 characters are dropped.

claimex extracts claims. It does not decide whether they are true.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and the few-shot examples revision.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimex %s (examples %s)\n", Version, extract.ExamplesVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimex/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&backendKind, "backend", "", "extraction backend (gemini, openai, anthropic)")
	flags.StringVar(&backendModel, "model", "", "backend model (default depends on backend)")
	flags.StringVar(&apiKey, "api-key", "", "backend credential (default: read from environment)")
	flags.DurationVar(&backendTimeout, "timeout", 0, "timeout for a single backend call")

	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("backend.kind", flags.Lookup("backend"))
	_ = viper.BindPFlag("backend.model", flags.Lookup("model"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".claimex"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CLAIMEX_BACKEND_KIND, CLAIMEX_CONCURRENCY_WORKERS, ...
	viper.SetEnvPrefix("CLAIMEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so environment variables can override it
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("backend.kind", cfg.Backend.Kind)
	v.SetDefault("backend.model", cfg.Backend.Model)
	v.SetDefault("backend.base_url", cfg.Backend.BaseURL)
	v.SetDefault("backend.timeout", cfg.Backend.Timeout)
	v.SetDefault("backend.temperature", cfg.Backend.Temperature)
	v.SetDefault("backend.max_tokens", cfg.Backend.MaxTokens)
	v.SetDefault("backend.http_proxy", cfg.Backend.HTTPProxy)
	v.SetDefault("backend.https_proxy", cfg.Backend.HTTPSProxy)
	v.SetDefault("backend.health_ttl", cfg.Backend.HealthTTL)

	v.SetDefault("fetch.timeout", cfg.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", cfg.Fetch.UserAgent)
	v.SetDefault("fetch.max_body_bytes", cfg.Fetch.MaxBodyBytes)
	v.SetDefault("fetch.respect_robots", cfg.Fetch.RespectRobots)

	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	v.SetDefault("concurrency.requests_per_second", cfg.Concurrency.RequestsPerSecond)
	v.SetDefault("concurrency.burst", cfg.Concurrency.Burst)

	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
}

// loadConfig merges defaults, config file, environment and flags
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if backendTimeout > 0 {
		cfg.Backend.Timeout = backendTimeout
	}
	return cfg, nil
}

// newLogger returns the process logger: warnings and errors on stderr,
// everything with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newExtractor builds the extractor every command shares. A missing
// credential is reported with the variables that were consulted.
func newExtractor(cfg *model.Config, logger *slog.Logger, opts ...extract.Option) (*extract.Extractor, error) {
	return extract.New(append([]extract.Option{
		extract.WithConfig(cfg.Backend),
		extract.WithCredential(apiKey),
		extract.WithLogger(logger),
	}, opts...)...)
}
