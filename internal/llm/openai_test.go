package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimex/internal/credential"
	"github.com/ppiankov/claimex/internal/model"
)

func chatServer(t *testing.T, content string, captured *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models":
			_ = json.NewEncoder(w).Encode(openai.ModelsList{Models: []openai.Model{{ID: "gemini-2.5-flash"}}})
			return
		case "/chat/completions":
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gemini-2.5-flash",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: content,
					},
					FinishReason: openai.FinishReasonStop,
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testConfig(baseURL string) Config {
	return Config{
		Kind:       KindGemini,
		Credential: credential.FromToken("test-key"),
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
	}
}

func TestOpenAIBackend_Extract_ClassKeyed(t *testing.T) {
	var captured openai.ChatCompletionRequest
	server := chatServer(t, `{"extractions":[{"claim":"Moscow is the capital of Russia","claim_attributes":{"fact":"Moscow is the capital of Russia"}}]}`, &captured)
	defer server.Close()

	backend, err := NewGeminiBackend(testConfig(server.URL))
	require.NoError(t, err)

	req := model.Request{
		Instruction: "Extract claims.",
		Text:        "Moscow is the capital of Russia.",
		ModelID:     "gemini-2.5-flash",
	}
	raw, err := backend.Extract(context.Background(), req)
	require.NoError(t, err)

	doc, ok := raw.(model.SingleDocument)
	require.True(t, ok, "expected SingleDocument, got %T", raw)
	require.Len(t, doc.Document.Extractions, 1)
	assert.Equal(t, "claim", doc.Document.Extractions[0].Class)
	assert.Equal(t, "Moscow is the capital of Russia", doc.Document.Extractions[0].Attribute("fact"))
	assert.Equal(t, req.Text, doc.Document.Text)

	assert.Equal(t, "gemini-2.5-flash", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, captured.Messages[0].Role)
	assert.True(t, strings.HasSuffix(captured.Messages[1].Content, "Q: Moscow is the capital of Russia.\nA: "))
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, captured.ResponseFormat.Type)
}

func TestOpenAIBackend_Extract_LegacyShape(t *testing.T) {
	server := chatServer(t, "```json\n{\"extractions\":[{\"extraction_class\":\"claim\",\"extraction_text\":\"Paris is in France\"}]}\n```", nil)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Kind = KindOpenAI
	backend, err := NewOpenAIBackend(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, backend.Model())

	raw, err := backend.Extract(context.Background(), model.Request{Text: "Paris is in France."})
	require.NoError(t, err)
	_, ok := raw.(model.LegacyMapping)
	assert.True(t, ok, "expected LegacyMapping, got %T", raw)
}

func TestOpenAIBackend_Extract_NotJSON(t *testing.T) {
	server := chatServer(t, "I could not find any claims.", nil)
	defer server.Close()

	backend, err := NewGeminiBackend(testConfig(server.URL))
	require.NoError(t, err)

	_, err = backend.Extract(context.Background(), model.Request{Text: "Hello?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse structured JSON")
}

func TestOpenAIBackend_Extract_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	backend, err := NewGeminiBackend(testConfig(server.URL))
	require.NoError(t, err)

	_, err = backend.Extract(context.Background(), model.Request{Text: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini API error")
}

func TestOpenAIBackend_Extract_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "chatcmpl-empty"})
	}))
	defer server.Close()

	backend, err := NewGeminiBackend(testConfig(server.URL))
	require.NoError(t, err)

	_, err = backend.Extract(context.Background(), model.Request{Text: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response from gemini")
}

func TestOpenAIBackend_Ping(t *testing.T) {
	server := chatServer(t, "{}", nil)
	defer server.Close()

	backend, err := NewGeminiBackend(testConfig(server.URL))
	require.NoError(t, err)
	assert.NoError(t, backend.Ping(context.Background()))
}

func TestOpenAIBackend_RequiresCredential(t *testing.T) {
	_, err := NewOpenAIBackend(Config{Kind: KindOpenAI})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a credential")
}
