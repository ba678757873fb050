package extract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimex/internal/credential"
	"github.com/ppiankov/claimex/internal/llm"
	"github.com/ppiankov/claimex/internal/model"
)

// fakeBackend implements llm.Backend for testing
type fakeBackend struct {
	raw     model.RawResult
	err     error
	panics  bool
	calls   atomic.Int32
	lastReq model.Request
}

func (f *fakeBackend) Name() string  { return "fake" }
func (f *fakeBackend) Model() string { return "fake-model" }

func (f *fakeBackend) Ping(ctx context.Context) error { return f.err }

func (f *fakeBackend) Extract(ctx context.Context, req model.Request) (model.RawResult, error) {
	f.calls.Add(1)
	f.lastReq = req
	if f.panics {
		panic("decoder exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func noEnv(string) (string, bool) { return "", false }

func TestNew_FailsWithoutCredential(t *testing.T) {
	e, err := New(WithCredentialLookup(noEnv), WithBackend(&fakeBackend{}))
	require.Error(t, err)
	assert.Nil(t, e)
	assert.True(t, errors.Is(err, credential.ErrNoCredential))

	var cfgErr *credential.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNew_ResolvesCredentialFromEnvironment(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == credential.SecondaryEnv {
			return "google-key-1234567", true
		}
		return "", false
	}

	e, err := New(WithCredentialLookup(lookup), WithBackend(&fakeBackend{}))
	require.NoError(t, err)
	assert.Equal(t, credential.SecondaryEnv, e.Credential().Source())
	assert.Equal(t, "fake-model", e.Model())
}

func TestNew_UsesBackendCredentialSources(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "ANTHROPIC_API_KEY" {
			return "sk-ant-1234567890", true
		}
		return "", false
	}

	cfg := model.DefaultConfig().Backend
	cfg.Kind = "anthropic"

	e, err := New(WithConfig(cfg), WithCredentialLookup(lookup))
	require.NoError(t, err)
	assert.Equal(t, "anthropic", e.Backend().Name())
	assert.Equal(t, "ANTHROPIC_API_KEY", e.Credential().Source())
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := model.DefaultConfig().Backend
	cfg.Kind = "carrier-pigeon"

	_, err := New(WithConfig(cfg), WithCredential("some-key-123456"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestNew_ModelIsFixedAtConstruction(t *testing.T) {
	backend := &fakeBackend{raw: model.SingleDocument{}}
	e, err := New(WithCredential("key-1234567890"), WithBackend(backend), WithModel("gemini-2.0-pro"))
	require.NoError(t, err)

	e.Extract(context.Background(), "Some text worth checking.")
	assert.Equal(t, "gemini-2.0-pro", backend.lastReq.ModelID)
}

func TestExtract_EndToEndScenario(t *testing.T) {
	backend := &fakeBackend{raw: model.SingleDocument{Document: model.AnnotatedDocument{
		Extractions: []model.ExtractionRecord{
			claimRecord("Moscow is the capital of Russia", "Moscow is the capital of Russia"),
			claimRecord("12 million people", "Population of Moscow is 12 million"),
		},
	}}}

	e, err := New(WithCredential("key-1234567890"), WithBackend(backend))
	require.NoError(t, err)

	text := "Moscow is the capital of Russia with 12 million people."
	got := e.Extract(context.Background(), text)

	assert.True(t, setOf("Moscow is the capital of Russia", "Population of Moscow is 12 million").Equal(got),
		"got %v", got.Sorted())

	req := backend.lastReq
	assert.Equal(t, text, req.Text)
	assert.Equal(t, Instruction, req.Instruction)
	assert.NotEmpty(t, req.Examples)
}

func TestExtract_BackendErrorYieldsEmptySet(t *testing.T) {
	var logs bytes.Buffer
	backend := &fakeBackend{err: errors.New("connection refused")}

	e, err := New(
		WithCredential("key-1234567890"),
		WithBackend(backend),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	require.NoError(t, err)

	var got model.ClaimSet
	require.NotPanics(t, func() {
		got = e.Extract(context.Background(), "Moscow is the capital of Russia.")
	})
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
	assert.Contains(t, logs.String(), "claim extraction failed")
	assert.Contains(t, logs.String(), "connection refused")
	assert.Regexp(t, `call_id=[0-9a-f-]{36}`, logs.String())
}

func TestExtract_BackendErrorForgetsCachedHealth(t *testing.T) {
	backend := &fakeBackend{raw: model.SingleDocument{}}
	health := llm.NewHealthCache(time.Minute)
	require.NoError(t, health.Check(context.Background(), backend))

	e, err := New(WithCredential("key-1234567890"), WithBackend(backend), WithHealthCache(health))
	require.NoError(t, err)

	backend.err = errors.New("503 service unavailable")
	assert.Equal(t, 0, e.Extract(context.Background(), "Moscow is the capital of Russia.").Len())

	assert.EqualError(t, health.Check(context.Background(), backend), "503 service unavailable",
		"a failed call must make the next check ping the backend again")
}

func TestExtract_PanicYieldsEmptySet(t *testing.T) {
	e, err := New(WithCredential("key-1234567890"), WithBackend(&fakeBackend{panics: true}))
	require.NoError(t, err)

	var got model.ClaimSet
	require.NotPanics(t, func() {
		got = e.Extract(context.Background(), "Moscow is the capital of Russia.")
	})
	assert.Equal(t, 0, got.Len())
}

func TestExtract_BlankTextSkipsBackend(t *testing.T) {
	backend := &fakeBackend{}
	e, err := New(WithCredential("key-1234567890"), WithBackend(backend))
	require.NoError(t, err)

	got := e.Extract(context.Background(), "   \n")
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, int32(0), backend.calls.Load())
}

func TestExtract_NeverLogsRawCredential(t *testing.T) {
	var logs bytes.Buffer
	_, err := New(
		WithCredential("AIzaSuperSecretValue"),
		WithBackend(&fakeBackend{}),
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "extractor ready")
	assert.NotContains(t, logs.String(), "SuperSecret")
}

func TestExtractClaims_OneShot(t *testing.T) {
	_, err := ExtractClaims(context.Background(), "text", "", WithCredentialLookup(noEnv))
	require.Error(t, err)
	assert.True(t, errors.Is(err, credential.ErrNoCredential))

	backend := &fakeBackend{raw: model.LegacyMapping{model.ExtractionsKey: []any{
		legacyEntry("Mars has two moons", "Mars has two natural satellites"),
	}}}
	got, err := ExtractClaims(context.Background(), "Mars has two moons.", "key-1234567890", WithBackend(backend))
	require.NoError(t, err)
	assert.True(t, setOf("Mars has two natural satellites").Equal(got))
}

// TestExtract_OpenAICompatibleBackend runs the full path against a mock
// Chat Completions server that answers in the class-keyed format.
func TestExtract_OpenAICompatibleBackend(t *testing.T) {
	var authHeader atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gemini-2.5-flash",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {
					"role": "assistant",
					"content": "{\"extractions\":[{\"claim\":\"Moscow is the capital of Russia\",\"claim_attributes\":{\"fact\":\"Moscow is the capital of Russia\"}},{\"claim\":\"12 million people\",\"claim_attributes\":{\"fact\":\"Population of Moscow is 12 million\"}}]}"
				}
			}]
		}`))
	}))
	defer server.Close()

	cfg := model.DefaultConfig().Backend
	cfg.BaseURL = server.URL

	e, err := New(WithConfig(cfg), WithCredential("gemini-test-key"))
	require.NoError(t, err)

	got := e.Extract(context.Background(), "Moscow is the capital of Russia with 12 million people.")
	assert.True(t, setOf("Moscow is the capital of Russia", "Population of Moscow is 12 million").Equal(got),
		"got %v", got.Sorted())
	assert.True(t, strings.HasSuffix(authHeader.Load().(string), "gemini-test-key"))
}
