package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/claimex/internal/model"
)

// attributeSuffix joins a class name to its attribute object key, e.g. "claim_attributes"
const attributeSuffix = "_attributes"

// systemMessage frames every extraction call
const systemMessage = "You extract structured information from text. Reply with JSON only, no markdown, no commentary."

// RenderPrompt builds the few-shot prompt sent to generative backends.
//
// Layout:
//
//	<instruction>
//
//	Examples
//	Q: <example text>
//	A: {"extractions":[{"claim":"...","claim_attributes":{"fact":"..."}}]}
//
//	Q: <target text>
//	A:
func RenderPrompt(req model.Request) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(req.Instruction))
	b.WriteString("\n\n")
	b.WriteString("Answer with a JSON object holding an \"extractions\" list. ")
	b.WriteString("Each entry uses the extraction class as key and the exact source span as value, ")
	b.WriteString("plus an optional \"<class>_attributes\" object.\n\n")

	if len(req.Examples) > 0 {
		b.WriteString("Examples\n")
		for _, ex := range req.Examples {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", ex.Text, formatExtractions(ex.Extractions))
		}
	}

	fmt.Fprintf(&b, "Q: %s\nA: ", req.Text)
	return b.String()
}

// formatExtractions renders records in the class-keyed answer format
func formatExtractions(records []model.ExtractionRecord) string {
	entries := make([]map[string]any, 0, len(records))
	for _, r := range records {
		entry := map[string]any{r.Class: r.Text}
		if len(r.Attributes) > 0 {
			entry[r.Class+attributeSuffix] = r.Attributes
		}
		entries = append(entries, entry)
	}

	data, err := json.Marshal(map[string]any{model.ExtractionsKey: entries})
	if err != nil {
		// maps of strings always marshal
		return "{}"
	}
	return string(data)
}
