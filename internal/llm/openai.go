package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/claimex/internal/model"
)

// OpenAIBackend talks to OpenAI-compatible chat completion APIs.
// It serves both OpenAI and Gemini (through Gemini's OpenAI-compatible endpoint).
type OpenAIBackend struct {
	name   string
	client *openai.Client
	config Config
}

// NewOpenAIBackend creates a backend for the OpenAI API
func NewOpenAIBackend(config Config) (*OpenAIBackend, error) {
	return newOpenAICompatible(KindOpenAI, config)
}

// NewGeminiBackend creates a backend for Gemini's OpenAI-compatible endpoint
func NewGeminiBackend(config Config) (*OpenAIBackend, error) {
	if config.BaseURL == "" {
		config.BaseURL = GeminiBaseURL
	}
	return newOpenAICompatible(KindGemini, config)
}

func newOpenAICompatible(name string, config Config) (*OpenAIBackend, error) {
	if config.Credential.IsZero() {
		return nil, fmt.Errorf("%s backend requires a credential", name)
	}

	clientConfig := openai.DefaultConfig(config.Credential.Reveal())
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = config.httpClient()

	if config.Model == "" {
		config.Model = DefaultModel(name)
	}

	return &OpenAIBackend{
		name:   name,
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the backend kind
func (b *OpenAIBackend) Name() string {
	return b.name
}

// Model returns the configured model
func (b *OpenAIBackend) Model() string {
	return b.config.Model
}

// Ping lists models, a cheap call that exercises the credential
func (b *OpenAIBackend) Ping(ctx context.Context) error {
	if _, err := b.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%s API check failed: %w", b.name, err)
	}
	return nil
}

// Extract runs one few-shot extraction through the Chat Completions API
func (b *OpenAIBackend) Extract(ctx context.Context, req model.Request) (model.RawResult, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = b.config.Model
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, b.config.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: modelID,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemMessage,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: RenderPrompt(req),
			},
		},
		MaxTokens:   b.config.maxTokens(),
		Temperature: b.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := b.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", b.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", b.name)
	}

	return Resolve(resp.Choices[0].Message.Content, req.Text)
}
