package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/claimex/internal/llm"
	"github.com/ppiankov/claimex/internal/model"
)

// recordSchemaJSON describes one flat record inside a legacy mapping
const recordSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "extraction_class": {"type": ["string", "null"]},
    "extraction_text": {"type": ["string", "null"]},
    "attributes": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "number", "boolean", "array", "null"]}
    }
  },
  "anyOf": [
    {"required": ["extraction_text"]},
    {"required": ["attributes"]}
  ]
}`

var recordSchema = jsonschema.MustCompileString("record.json", recordSchemaJSON)

// Normalizer reduces any RawResult to a flat, deduplicated claim set
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer; a nil logger discards output
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = discardLogger()
	}
	return &Normalizer{logger: logger}
}

// Normalize normalizes without logging
func Normalize(raw model.RawResult) model.ClaimSet {
	return NewNormalizer(nil).Normalize(raw)
}

// Normalize walks every document of raw, picks one candidate per record
// (the "fact" attribute when present, else the verbatim span), drops
// candidates shorter than model.MinClaimLength and deduplicates.
// Malformed documents are skipped; the result may be empty.
func (n *Normalizer) Normalize(raw model.RawResult) model.ClaimSet {
	claims := model.NewClaimSet()

	for i, doc := range coerce(raw) {
		candidates, err := n.walk(i, doc)
		if err != nil {
			n.logger.Warn("skipping malformed document", "error", err)
			continue
		}

		for _, candidate := range candidates {
			claim, ok := model.NewClaim(candidate)
			if !ok {
				n.logger.Debug("discarding short candidate", "document", i, "candidate", candidate)
				continue
			}
			claims.Add(claim)
		}
	}

	return claims
}

// coerce makes one document and many documents look the same
func coerce(raw model.RawResult) []model.RawResult {
	switch r := raw.(type) {
	case nil:
		return nil
	case model.DocumentSequence:
		return r.Items
	default:
		return []model.RawResult{raw}
	}
}

// walk returns the candidate strings of a single document
func (n *Normalizer) walk(index int, doc model.RawResult) ([]string, error) {
	switch d := doc.(type) {
	case model.SingleDocument:
		candidates := make([]string, 0, len(d.Document.Extractions))
		for _, record := range d.Document.Extractions {
			candidates = append(candidates, selectValue(record))
		}
		return candidates, nil

	case model.LegacyMapping:
		records, err := legacyRecords(d)
		if err != nil {
			return nil, &MalformedResultError{Document: index, Shape: model.ShapeName(d), Reason: err.Error()}
		}
		candidates := make([]string, 0, len(records))
		for _, record := range records {
			candidates = append(candidates, selectValue(record))
		}
		return candidates, nil

	default:
		n.logger.Debug("ignoring unrecognized document", "document", index, "shape", model.ShapeName(doc))
		return nil, nil
	}
}

// selectValue prefers the normalized fact over the verbatim span
func selectValue(record model.ExtractionRecord) string {
	if fact := strings.TrimSpace(record.Attribute(model.FactAttribute)); fact != "" {
		return fact
	}
	return record.Text
}

// legacyRecords validates and decodes the entries under "extractions".
// Class-keyed entries are accepted alongside flat ones.
func legacyRecords(m model.LegacyMapping) ([]model.ExtractionRecord, error) {
	// Round-trip through JSON so Go-built mappings validate like decoded ones
	data, err := json.Marshal(m[model.ExtractionsKey])
	if err != nil {
		return nil, fmt.Errorf("encode extractions: %w", err)
	}

	var entries []any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("extractions is not a list")
	}

	records := make([]model.ExtractionRecord, 0, len(entries))
	for i, entry := range entries {
		if m, ok := entry.(map[string]any); ok {
			if record, ok := llm.ClassKeyedRecord(m); ok {
				records = append(records, record)
				continue
			}
		}
		if err := recordSchema.Validate(entry); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, decodeRecord(entry.(map[string]any)))
	}
	return records, nil
}

func decodeRecord(entry map[string]any) model.ExtractionRecord {
	record := model.ExtractionRecord{}
	if class, ok := entry["extraction_class"].(string); ok {
		record.Class = class
	}
	if text, ok := entry["extraction_text"].(string); ok {
		record.Text = text
	}
	if attrs, ok := entry["attributes"].(map[string]any); ok {
		record.Attributes = llm.FlattenAttributes(attrs)
	}
	return record
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
