package credential

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestResolve_ExplicitWins(t *testing.T) {
	r := Resolver{Lookup: envLookup(map[string]string{PrimaryEnv: "env-key-123456"})}

	cred, err := r.Resolve("explicit-key-123")
	require.NoError(t, err)
	assert.Equal(t, "explicit-key-123", cred.Reveal())
	assert.Equal(t, "explicit", cred.Source())
}

func TestResolve_PrimaryBeforeSecondary(t *testing.T) {
	r := Resolver{Lookup: envLookup(map[string]string{
		PrimaryEnv:   "primary-key-123",
		SecondaryEnv: "secondary-key-123",
	})}

	cred, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "primary-key-123", cred.Reveal())
	assert.Equal(t, PrimaryEnv, cred.Source())
}

func TestResolve_FallsBackToSecondary(t *testing.T) {
	r := Resolver{Lookup: envLookup(map[string]string{
		PrimaryEnv:   "   ",
		SecondaryEnv: "secondary-key-123",
	})}

	cred, err := r.Resolve("  ")
	require.NoError(t, err)
	assert.Equal(t, "secondary-key-123", cred.Reveal())
	assert.Equal(t, SecondaryEnv, cred.Source())
}

func TestResolve_CustomSources(t *testing.T) {
	r := Resolver{Lookup: envLookup(map[string]string{"OPENAI_API_KEY": "sk-test-000000"})}

	cred, err := r.Resolve("", "OPENAI_API_KEY", "CLAIMEX_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "OPENAI_API_KEY", cred.Source())
}

func TestResolve_NoCredential(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"absent": {},
		"empty":  {PrimaryEnv: "", SecondaryEnv: ""},
		"blank":  {PrimaryEnv: " \t", SecondaryEnv: "\n"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Resolver{Lookup: envLookup(env)}.Resolve("")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoCredential))

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, []string{PrimaryEnv, SecondaryEnv}, cfgErr.Sources)
			assert.Contains(t, err.Error(), PrimaryEnv)
		})
	}
}

func TestCredential_NeverPrintsToken(t *testing.T) {
	cred := FromToken("AIzaSyVerySecretToken")

	assert.Equal(t, "AIza…", cred.String())
	assert.NotContains(t, fmt.Sprintf("%v", cred), "VerySecret")

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("resolved", "credential", cred)
	assert.NotContains(t, buf.String(), "VerySecret")
	assert.Contains(t, buf.String(), "credential.source=explicit")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "****", Redact("short"))
	assert.Equal(t, "sk-t…", Redact("sk-test-123456789"))
	assert.Equal(t, "ключ…", Redact("ключ-секрет-123"))
	assert.Equal(t, "****", Redact("ключсекр"))
}
