package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/claimex/internal/model"
)

// AnthropicBackend implements Backend over Anthropic's Messages API
type AnthropicBackend struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicBackend creates a new Anthropic backend
func NewAnthropicBackend(config Config) (*AnthropicBackend, error) {
	if config.Credential.IsZero() {
		return nil, fmt.Errorf("anthropic backend requires a credential")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if config.Model == "" {
		config.Model = DefaultAnthropicModel
	}

	return &AnthropicBackend{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: config.httpClient(),
		config:     config,
	}, nil
}

// Name returns the backend kind
func (b *AnthropicBackend) Name() string {
	return KindAnthropic
}

// Model returns the configured model
func (b *AnthropicBackend) Model() string {
	return b.config.Model
}

// Ping lists models to validate the key without spending tokens
func (b *AnthropicBackend) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	b.setHeaders(httpReq)

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("anthropic API check failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return fmt.Errorf("anthropic API check failed: %w", apiError(httpResp.StatusCode, respBody))
	}
	return nil
}

// Extract runs one few-shot extraction through the Messages API
func (b *AnthropicBackend) Extract(ctx context.Context, req model.Request) (model.RawResult, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = b.config.Model
	}

	apiReq := anthropicRequest{
		Model:     modelID,
		MaxTokens: b.config.maxTokens(),
		System:    systemMessage,
		Messages: []anthropicMessage{
			{Role: "user", Content: RenderPrompt(req)},
		},
		Temperature: b.config.Temperature,
	}

	resp, err := b.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no content in anthropic response")
	}

	return Resolve(text.String(), req.Text)
}

// makeRequest makes an HTTP request to the Anthropic API
func (b *AnthropicBackend) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	b.setHeaders(httpReq)

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, apiError(httpResp.StatusCode, respBody)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

func (b *AnthropicBackend) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", b.config.Credential.Reveal())
	req.Header.Set("anthropic-version", "2023-06-01")
}

func apiError(status int, body []byte) error {
	var apiErr anthropicError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("API error (%d): %s - %s", status, apiErr.Error.Type, apiErr.Error.Message)
	}
	return fmt.Errorf("API error (%d): %s", status, strings.TrimSpace(string(body)))
}
