// Package credential resolves the access token used to authorize backend calls.
//
// An explicit value always wins; otherwise an ordered list of environment
// variables is consulted and the first non-empty one is used. Resolution
// failure is fatal for the caller and never retried.
package credential

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Default environment sources, in precedence order
const (
	PrimaryEnv   = "GEMINI_API_KEY"
	SecondaryEnv = "GOOGLE_API_KEY"
)

// ErrNoCredential is wrapped by every ConfigurationError
var ErrNoCredential = errors.New("no credential found")

// ConfigurationError reports that no credential could be resolved
type ConfigurationError struct {
	Sources []string // environment variables that were consulted
}

func (e *ConfigurationError) Error() string {
	if len(e.Sources) == 0 {
		return ErrNoCredential.Error()
	}
	return fmt.Sprintf("%s: pass one explicitly or set %s", ErrNoCredential, strings.Join(e.Sources, " or "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrNoCredential
}

// Credential is an opaque authorization token. It never prints in full.
type Credential struct {
	token  string
	source string
}

// Reveal returns the raw token. Only backends should call it.
func (c Credential) Reveal() string {
	return c.token
}

// Source names where the credential came from ("explicit" or an env var)
func (c Credential) Source() string {
	return c.source
}

// IsZero reports whether the credential is empty
func (c Credential) IsZero() bool {
	return c.token == ""
}

// String returns a redacted form safe for output
func (c Credential) String() string {
	return Redact(c.token)
}

// LogValue keeps slog from ever emitting the raw token
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", c.source),
		slog.String("token", Redact(c.token)),
	)
}

// Redact shows at most the first four characters of a token
func Redact(token string) string {
	if token == "" {
		return ""
	}
	runes := []rune(token)
	if len(runes) <= 8 {
		return "****"
	}
	return string(runes[:4]) + "…"
}

// Resolver looks credentials up from explicit values and named sources
type Resolver struct {
	// Lookup reads one named source; defaults to os.LookupEnv
	Lookup func(name string) (string, bool)
}

// Resolve returns the explicit credential if non-empty, else the first
// non-empty source. With no sources given, the default pair is used.
func (r Resolver) Resolve(explicit string, sources ...string) (Credential, error) {
	if token := strings.TrimSpace(explicit); token != "" {
		return Credential{token: token, source: "explicit"}, nil
	}

	if len(sources) == 0 {
		sources = []string{PrimaryEnv, SecondaryEnv}
	}

	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, name := range sources {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		if token := strings.TrimSpace(value); token != "" {
			return Credential{token: token, source: name}, nil
		}
	}

	return Credential{}, &ConfigurationError{Sources: sources}
}

// Resolve resolves against the process environment
func Resolve(explicit string, sources ...string) (Credential, error) {
	return Resolver{}.Resolve(explicit, sources...)
}

// FromToken wraps a raw token without consulting any source
func FromToken(token string) Credential {
	return Credential{token: strings.TrimSpace(token), source: "explicit"}
}
