package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/claimex/internal/credential"
	"github.com/ppiankov/claimex/internal/model"
	"github.com/ppiankov/claimex/internal/util"
)

// Backend is a schema-guided structured extraction service
type Backend interface {
	// Name returns the backend kind
	Name() string

	// Model returns the model identifier requests default to
	Model() string

	// Extract sends one extraction request and returns the raw result
	Extract(ctx context.Context, req model.Request) (model.RawResult, error)

	// Ping performs a lightweight call proving the backend is reachable and the credential accepted
	Ping(ctx context.Context) error
}

// Backend kinds
const (
	KindGemini    = "gemini"
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
)

// Default models per backend kind
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-20241022"
)

// GeminiBaseURL is Gemini's OpenAI-compatible endpoint
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config holds backend configuration
type Config struct {
	// Kind: "gemini", "openai", "anthropic"
	Kind string

	// Model name (backend-specific); empty selects the kind's default
	Model string

	// Credential authorizes every call
	Credential credential.Credential

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for a single backend call
	Timeout time.Duration

	// Temperature for generation; extraction wants it low
	Temperature float32

	// MaxTokens for the response
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Kind:        KindGemini,
		Timeout:     60 * time.Second,
		Temperature: 0.2,
		MaxTokens:   2048,
	}
}

// ConfigFromModel converts model.BackendConfig to llm.Config
func ConfigFromModel(bc model.BackendConfig, cred credential.Credential) Config {
	return Config{
		Kind:        bc.Kind,
		Model:       bc.Model,
		Credential:  cred,
		BaseURL:     bc.BaseURL,
		Timeout:     bc.Timeout,
		Temperature: bc.Temperature,
		MaxTokens:   bc.MaxTokens,
		HTTPProxy:   bc.HTTPProxy,
		HTTPSProxy:  bc.HTTPSProxy,
	}
}

// CredentialSources returns the ordered environment variables consulted for a kind
func CredentialSources(kind string) []string {
	switch normalizeKind(kind) {
	case KindOpenAI:
		return []string{"OPENAI_API_KEY", "CLAIMEX_API_KEY"}
	case KindAnthropic:
		return []string{"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"}
	default:
		return []string{credential.PrimaryEnv, credential.SecondaryEnv}
	}
}

// DefaultModel returns the model used when none is configured
func DefaultModel(kind string) string {
	switch normalizeKind(kind) {
	case KindOpenAI:
		return DefaultOpenAIModel
	case KindAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultGeminiModel
	}
}

func normalizeKind(kind string) string {
	switch k := strings.ToLower(strings.TrimSpace(kind)); k {
	case "", "google":
		return KindGemini
	case "claude":
		return KindAnthropic
	default:
		return k
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return 2048
	}
	return c.MaxTokens
}

func (c Config) httpClient() *http.Client {
	return &http.Client{
		Timeout: c.timeout(),
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(c.HTTPProxy, c.HTTPSProxy, ""),
		},
	}
}
