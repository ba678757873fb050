package llm

import (
	"fmt"
)

// NewBackend creates a backend based on configuration
func NewBackend(config Config) (Backend, error) {
	var (
		backend Backend
		err     error
	)

	switch normalizeKind(config.Kind) {
	case KindGemini:
		var b *OpenAIBackend
		b, err = NewGeminiBackend(config)
		backend = b

	case KindOpenAI:
		var b *OpenAIBackend
		b, err = NewOpenAIBackend(config)
		backend = b

	case KindAnthropic:
		var b *AnthropicBackend
		b, err = NewAnthropicBackend(config)
		backend = b

	default:
		return nil, fmt.Errorf("unknown backend: %s (supported: gemini, openai, anthropic)", config.Kind)
	}

	if err != nil {
		return nil, err
	}
	return backend, nil
}
