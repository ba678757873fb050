package extract

import (
	"github.com/ppiankov/claimex/internal/llm"
	"github.com/ppiankov/claimex/internal/model"
)

// ExamplesVersion pins the few-shot schema; bump it whenever Examples change
const ExamplesVersion = "2025-01"

// DefaultModel is the backend model requests use unless the extractor was built with another
const DefaultModel = llm.DefaultGeminiModel

// Instruction is the task description sent with every request
const Instruction = `Extract every verifiable factual claim from the text.
Split compound sentences into simple, atomic facts that can be checked on their own.
Ignore questions, opinions, instructions and other non-declarative content.
Use the extraction class "claim" with the exact span from the text, and put a
self-contained paraphrase of the fact in the "fact" attribute.`

// Examples establishes the expected output shape
var Examples = []model.ExtractionExample{
	{
		Text: "Moscow is the capital of Russia with a population of 12 million people.",
		Extractions: []model.ExtractionRecord{
			{
				Class:      model.ClaimClass,
				Text:       "Moscow is the capital of Russia",
				Attributes: map[string]string{model.FactAttribute: "Moscow is the capital of Russia"},
			},
			{
				Class:      model.ClaimClass,
				Text:       "a population of 12 million people",
				Attributes: map[string]string{model.FactAttribute: "The population of Moscow is 12 million people"},
			},
		},
	},
	{
		Text: "Japan is an island nation in the Pacific Ocean with about 125 million people. Is it the oldest monarchy in the world?",
		Extractions: []model.ExtractionRecord{
			{
				Class:      model.ClaimClass,
				Text:       "Japan is an island nation in the Pacific Ocean",
				Attributes: map[string]string{model.FactAttribute: "Japan is an island nation in the Pacific Ocean"},
			},
			{
				Class:      model.ClaimClass,
				Text:       "about 125 million people",
				Attributes: map[string]string{model.FactAttribute: "Japan has a population of about 125 million people"},
			},
		},
	},
}

// RequestBuilder assembles extraction requests for a fixed model
type RequestBuilder struct {
	ModelID string
}

// Build returns the request for text. It performs no I/O and cannot fail.
func (b RequestBuilder) Build(text string) model.Request {
	modelID := b.ModelID
	if modelID == "" {
		modelID = DefaultModel
	}
	return model.Request{
		Instruction: Instruction,
		Examples:    Examples,
		Text:        text,
		ModelID:     modelID,
	}
}

// BuildRequest builds a request with the default model
func BuildRequest(text string) model.Request {
	return RequestBuilder{}.Build(text)
}
