package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimex/internal/pipeline"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// claimsOutput is the rendered form of one extraction
type claimsOutput struct {
	Source  string              `json:"source" yaml:"source"`
	Subject string              `json:"subject,omitempty" yaml:"subject,omitempty"`
	Fetch   *pipeline.FetchMeta `json:"fetch,omitempty" yaml:"fetch,omitempty"`
	Claims  []string            `json:"claims" yaml:"claims"`
	Error   string              `json:"error,omitempty" yaml:"error,omitempty"`
}

func newClaimsOutput(r pipeline.Result, err error) claimsOutput {
	out := claimsOutput{
		Source:  r.Source,
		Subject: r.Subject,
		Fetch:   r.Fetch,
		Claims:  []string{},
	}
	if r.Claims != nil {
		out.Claims = r.Claims.Sorted()
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// writeResult renders one extraction; claims are sorted for stable output
func writeResult(w io.Writer, format string, out claimsOutput) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()

	default:
		if out.Error != "" {
			_, err := fmt.Fprintf(w, "%s: error: %s\n", out.Source, out.Error)
			return err
		}
		if len(out.Claims) == 0 {
			_, err := fmt.Fprintln(w, "No claims found.")
			return err
		}
		for _, c := range out.Claims {
			if _, err := fmt.Fprintf(w, "- %s\n", c); err != nil {
				return err
			}
		}
		return nil
	}
}

// writeLine renders one batch result as a single JSON line
func writeLine(w io.Writer, out claimsOutput) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
