// Package extract turns natural-language text into atomic, verifiable claims.
//
// An Extractor builds a few-shot request, sends it to an extraction backend
// and normalizes whatever shape comes back into a deduplicated ClaimSet.
// Only construction can fail (no credential, bad backend configuration);
// Extract itself degrades to an empty set and logs the cause.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/claimex/internal/credential"
	"github.com/ppiankov/claimex/internal/llm"
	"github.com/ppiankov/claimex/internal/model"
)

// Extractor extracts claims from text. It is immutable after New and safe for concurrent use.
type Extractor struct {
	backend    llm.Backend
	builder    RequestBuilder
	normalizer *Normalizer
	logger     *slog.Logger
	credential credential.Credential
	health     *llm.HealthCache
}

type options struct {
	credential string
	lookup     func(string) (string, bool)
	backend    llm.Backend
	config     model.BackendConfig
	modelID    string
	logger     *slog.Logger
	health     *llm.HealthCache
}

// Option configures an Extractor
type Option func(*options)

// WithCredential passes the credential explicitly instead of reading the environment
func WithCredential(token string) Option {
	return func(o *options) { o.credential = token }
}

// WithCredentialLookup replaces os.LookupEnv for credential sources
func WithCredentialLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.lookup = lookup }
}

// WithBackend uses an already constructed backend instead of building one from config
func WithBackend(backend llm.Backend) Option {
	return func(o *options) { o.backend = backend }
}

// WithConfig sets the backend configuration
func WithConfig(cfg model.BackendConfig) Option {
	return func(o *options) { o.config = cfg }
}

// WithModel fixes the model identifier for every request of this extractor
func WithModel(modelID string) Option {
	return func(o *options) { o.modelID = modelID }
}

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHealthCache makes backend failures drop the backend's cached health,
// so the next availability check pings it again
func WithHealthCache(health *llm.HealthCache) Option {
	return func(o *options) { o.health = health }
}

// New resolves the credential and prepares the backend.
// A missing credential yields a *credential.ConfigurationError.
func New(opts ...Option) (*Extractor, error) {
	o := options{config: model.DefaultConfig().Backend}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}

	resolver := credential.Resolver{Lookup: o.lookup}
	cred, err := resolver.Resolve(o.credential, llm.CredentialSources(o.config.Kind)...)
	if err != nil {
		return nil, err
	}

	if o.modelID == "" {
		o.modelID = o.config.Model
	}

	backend := o.backend
	if backend == nil {
		cfg := llm.ConfigFromModel(o.config, cred)
		cfg.Model = o.modelID
		backend, err = llm.NewBackend(cfg)
		if err != nil {
			return nil, fmt.Errorf("create backend: %w", err)
		}
	}

	if o.modelID == "" {
		o.modelID = backend.Model()
	}

	o.logger.Debug("extractor ready",
		"backend", backend.Name(),
		"model", o.modelID,
		"credential", cred,
		"examples", ExamplesVersion,
	)

	return &Extractor{
		backend:    backend,
		builder:    RequestBuilder{ModelID: o.modelID},
		normalizer: NewNormalizer(o.logger),
		logger:     o.logger,
		credential: cred,
		health:     o.health,
	}, nil
}

// Backend returns the backend used by this extractor
func (e *Extractor) Backend() llm.Backend {
	return e.backend
}

// Model returns the model identifier sent with every request
func (e *Extractor) Model() string {
	return e.builder.ModelID
}

// Credential returns the resolved credential (it prints redacted)
func (e *Extractor) Credential() credential.Credential {
	return e.credential
}

// Extract returns the claims found in text. Backend and parsing failures
// are logged and produce an empty set; Extract never returns an error.
func (e *Extractor) Extract(ctx context.Context, text string) model.ClaimSet {
	if strings.TrimSpace(text) == "" {
		return model.NewClaimSet()
	}

	logger := e.logger.With("call_id", uuid.NewString())
	claims, err := e.extract(ctx, logger, text)
	if err != nil {
		logger.Error("claim extraction failed", "error", err)
		if e.health != nil && ctx.Err() == nil {
			e.health.Forget(e.backend)
		}
		return model.NewClaimSet()
	}
	return claims
}

func (e *Extractor) extract(ctx context.Context, logger *slog.Logger, text string) (claims model.ClaimSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &BackendError{Backend: e.backend.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	req := e.builder.Build(text)

	raw, err := e.backend.Extract(ctx, req)
	if err != nil {
		return nil, &BackendError{Backend: e.backend.Name(), Err: err}
	}

	claims = e.normalizer.Normalize(raw)
	logger.Debug("claims extracted",
		"backend", e.backend.Name(),
		"shape", model.ShapeName(raw),
		"claims", claims.Len(),
	)
	return claims, nil
}

// ExtractClaims builds a one-off extractor and runs it on text.
// The only error is a construction failure such as a missing credential.
func ExtractClaims(ctx context.Context, text, token string, opts ...Option) (model.ClaimSet, error) {
	e, err := New(append([]Option{WithCredential(token)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, text), nil
}
