package model

const (
	// ClaimClass is the extraction class used for claim records
	ClaimClass = "claim"

	// FactAttribute carries the normalized paraphrase of a claim
	FactAttribute = "fact"

	// ExtractionsKey is the conventional key holding records in mapping-shaped results
	ExtractionsKey = "extractions"
)

// ExtractionRecord is one structured annotation returned by the backend
type ExtractionRecord struct {
	Class      string            `json:"extraction_class" yaml:"extraction_class"`
	Text       string            `json:"extraction_text" yaml:"extraction_text"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Attribute returns the named attribute, or "" when absent
func (r ExtractionRecord) Attribute(key string) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[key]
}

// ExtractionExample pairs sample text with the records expected from it
type ExtractionExample struct {
	Text        string             `json:"text" yaml:"text"`
	Extractions []ExtractionRecord `json:"extractions" yaml:"extractions"`
}

// AnnotatedDocument is a typed backend document carrying extraction records
type AnnotatedDocument struct {
	Text        string             `json:"text,omitempty"`
	Extractions []ExtractionRecord `json:"extractions"`
}

// Request is everything a backend needs for one extraction call
type Request struct {
	Instruction string
	Examples    []ExtractionExample
	Text        string
	ModelID     string
}

// RawResult is the backend response, one of SingleDocument, DocumentSequence,
// LegacyMapping or Unrecognized.
type RawResult interface {
	isRawResult()
}

// SingleDocument is one typed annotated document
type SingleDocument struct {
	Document AnnotatedDocument
}

// DocumentSequence is an ordered list of results, each expected to be document-like
type DocumentSequence struct {
	Items []RawResult
}

// LegacyMapping is a plain mapping carrying flat record entries under ExtractionsKey
type LegacyMapping map[string]any

// Unrecognized wraps any value that is not document-like
type Unrecognized struct {
	Value any
}

func (SingleDocument) isRawResult()   {}
func (DocumentSequence) isRawResult() {}
func (LegacyMapping) isRawResult()    {}
func (Unrecognized) isRawResult()     {}

// Classify maps an arbitrary backend value onto a RawResult variant.
// Decoded JSON (map[string]any, []any) and typed documents are both accepted.
func Classify(v any) RawResult {
	switch val := v.(type) {
	case nil:
		return Unrecognized{}
	case RawResult:
		return val
	case AnnotatedDocument:
		return SingleDocument{Document: val}
	case *AnnotatedDocument:
		if val == nil {
			return Unrecognized{}
		}
		return SingleDocument{Document: *val}
	case []AnnotatedDocument:
		seq := DocumentSequence{Items: make([]RawResult, 0, len(val))}
		for _, doc := range val {
			seq.Items = append(seq.Items, SingleDocument{Document: doc})
		}
		return seq
	case []*AnnotatedDocument:
		seq := DocumentSequence{Items: make([]RawResult, 0, len(val))}
		for _, doc := range val {
			seq.Items = append(seq.Items, Classify(doc))
		}
		return seq
	case []map[string]any:
		seq := DocumentSequence{Items: make([]RawResult, 0, len(val))}
		for _, item := range val {
			seq.Items = append(seq.Items, ClassifyItem(item))
		}
		return seq
	case []any:
		seq := DocumentSequence{Items: make([]RawResult, 0, len(val))}
		for _, item := range val {
			seq.Items = append(seq.Items, ClassifyItem(item))
		}
		return seq
	case map[string]any:
		if _, ok := val[ExtractionsKey]; ok {
			return LegacyMapping(val)
		}
		return Unrecognized{Value: val}
	default:
		return Unrecognized{Value: v}
	}
}

// ClassifyItem classifies one element of a top-level list.
// A flat record or a bare string stands for a single extraction and
// becomes a one-entry LegacyMapping, so it is kept or skipped on its own.
func ClassifyItem(v any) RawResult {
	switch val := v.(type) {
	case string:
		return LegacyMapping{ExtractionsKey: []any{map[string]any{"extraction_text": val}}}
	case map[string]any:
		if isFlatRecord(val) {
			return LegacyMapping{ExtractionsKey: []any{val}}
		}
	}
	return Classify(v)
}

func isFlatRecord(m map[string]any) bool {
	if _, ok := m[ExtractionsKey]; ok {
		return false
	}
	for _, key := range []string{"extraction_text", "extraction_class", "attributes"} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// ShapeName returns a short label for the variant, used in logs
func ShapeName(raw RawResult) string {
	switch raw.(type) {
	case SingleDocument:
		return "single_document"
	case DocumentSequence:
		return "document_sequence"
	case LegacyMapping:
		return "legacy_mapping"
	default:
		return "unrecognized"
	}
}
