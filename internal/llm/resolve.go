package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/claimex/internal/model"
)

// Resolve turns raw model output into a RawResult.
//
// Output in the class-keyed answer format becomes a typed SingleDocument,
// and a top-level list is resolved element by element into a DocumentSequence.
// Anything else that parses as JSON is classified as-is (flat records,
// lists of documents, unknown shapes) and left to the normalizer.
// Output that is not JSON at all is an error.
func Resolve(output, sourceText string) (model.RawResult, error) {
	parsed, err := parseStructuredJSON(output)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(parsed, &decoded); err != nil {
		return nil, fmt.Errorf("decode structured output: %w", err)
	}

	if list, ok := decoded.([]any); ok {
		seq := model.DocumentSequence{Items: make([]model.RawResult, 0, len(list))}
		for _, item := range list {
			seq.Items = append(seq.Items, resolveItem(item, sourceText))
		}
		return seq, nil
	}

	if doc, ok := resolveClassKeyed(decoded); ok {
		doc.Text = sourceText
		return model.SingleDocument{Document: doc}, nil
	}

	return model.Classify(decoded), nil
}

// resolveItem resolves one element of a top-level list: a class-keyed
// document, a single class-keyed record, or whatever model.ClassifyItem makes of it.
func resolveItem(item any, sourceText string) model.RawResult {
	if doc, ok := resolveClassKeyed(item); ok {
		doc.Text = sourceText
		return model.SingleDocument{Document: doc}
	}
	if entry, ok := item.(map[string]any); ok {
		if _, nested := entry[model.ExtractionsKey]; !nested {
			if record, ok := ClassKeyedRecord(entry); ok {
				return model.SingleDocument{Document: model.AnnotatedDocument{
					Text:        sourceText,
					Extractions: []model.ExtractionRecord{record},
				}}
			}
		}
	}
	return model.ClassifyItem(item)
}

// resolveClassKeyed reads {"extractions":[{"claim":"...","claim_attributes":{...}}]}.
// It refuses the whole document if any entry is not in that format.
func resolveClassKeyed(v any) (model.AnnotatedDocument, bool) {
	root, ok := v.(map[string]any)
	if !ok {
		return model.AnnotatedDocument{}, false
	}
	list, ok := root[model.ExtractionsKey].([]any)
	if !ok {
		return model.AnnotatedDocument{}, false
	}

	doc := model.AnnotatedDocument{Extractions: make([]model.ExtractionRecord, 0, len(list))}
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return model.AnnotatedDocument{}, false
		}
		record, ok := ClassKeyedRecord(entry)
		if !ok {
			return model.AnnotatedDocument{}, false
		}
		doc.Extractions = append(doc.Extractions, record)
	}
	return doc, true
}

// ClassKeyedRecord reads one {"<class>":"<span>","<class>_attributes":{...}} entry
func ClassKeyedRecord(entry map[string]any) (model.ExtractionRecord, bool) {
	// Flat records are the legacy shape, not this one
	for _, key := range []string{"extraction_text", "extraction_class", "attributes"} {
		if _, flat := entry[key]; flat {
			return model.ExtractionRecord{}, false
		}
	}

	var classes []string
	for key := range entry {
		if strings.HasSuffix(key, attributeSuffix) || strings.HasSuffix(key, "_index") {
			continue
		}
		classes = append(classes, key)
	}
	if len(classes) != 1 {
		return model.ExtractionRecord{}, false
	}

	class := classes[0]
	text, ok := entry[class].(string)
	if !ok {
		return model.ExtractionRecord{}, false
	}

	record := model.ExtractionRecord{Class: class, Text: text}
	if rawAttrs, present := entry[class+attributeSuffix]; present && rawAttrs != nil {
		attrs, ok := rawAttrs.(map[string]any)
		if !ok {
			return model.ExtractionRecord{}, false
		}
		record.Attributes = FlattenAttributes(attrs)
	}
	return record, true
}

// FlattenAttributes converts decoded attribute values to strings.
// Lists are joined with "; ", nulls dropped.
func FlattenAttributes(attrs map[string]any) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for key, value := range attrs {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[key] = v
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				if p != nil {
					parts = append(parts, fmt.Sprint(p))
				}
			}
			out[key] = strings.Join(parts, "; ")
		default:
			out[key] = fmt.Sprint(v)
		}
	}
	return out
}

// parseStructuredJSON parses JSON from model output, with lightweight recovery
// for markdown code fences and surrounding text.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("failed to parse structured JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop the opening fence (and its language tag)
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && arrayStart >= 0:
		if objectStart < arrayStart {
			start, closeChar = objectStart, "}"
		} else {
			start, closeChar = arrayStart, "]"
		}
	case objectStart >= 0:
		start, closeChar = objectStart, "}"
	case arrayStart >= 0:
		start, closeChar = arrayStart, "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
