package model

import "time"

// Config is the complete claimex configuration
type Config struct {
	Backend     BackendConfig     `yaml:"backend" mapstructure:"backend"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// BackendConfig selects and tunes the extraction backend
type BackendConfig struct {
	Kind        string        `yaml:"kind" mapstructure:"kind"`         // gemini, openai, anthropic
	Model       string        `yaml:"model" mapstructure:"model"`       // empty = backend default
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"` // custom endpoint
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy   string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	HealthTTL   time.Duration `yaml:"health_ttl" mapstructure:"health_ttl"` // how long availability checks are remembered
}

// FetchConfig controls URL input
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ConcurrencyConfig controls batch scheduling
type ConcurrencyConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text, json, yaml
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Kind:        "gemini",
			Timeout:     60 * time.Second,
			Temperature: 0.2,
			MaxTokens:   2048,
			HealthTTL:   5 * time.Minute,
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "claimex/0.1 (+https://github.com/ppiankov/claimex)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
