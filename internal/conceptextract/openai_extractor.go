package conceptextract

import (
	"context"
	"fmt"

	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/openai"
)

const extractionSystemPrompt = `You are an expert teaching assistant. Extract the domain concepts taught in the lecture text the user provides.
For every concept return:
- "name": the concept name exactly as it appears in the text
- "definition": a one-to-three sentence definition grounded in the text
- "text_evidence": a short verbatim excerpt from the text that mentions the concept
Only return concepts actually present in the text.`

var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"concepts": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":          map[string]any{"type": "string"},
					"definition":    map[string]any{"type": "string"},
					"text_evidence": map[string]any{"type": "string"},
				},
				"required":             []string{"name", "definition", "text_evidence"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"concepts"},
	"additionalProperties": false,
}

type openaiExtractor struct {
	ai  openai.Client
	log *logger.Logger
}

// NewOpenAIExtractor returns an Extractor backed by structured JSON output
// from the chat-completions API.
func NewOpenAIExtractor(ai openai.Client, log *logger.Logger) Extractor {
	return &openaiExtractor{
		ai:  ai,
		log: log.With("service", "ConceptExtractor"),
	}
}

func (e *openaiExtractor) ExtractConcepts(ctx context.Context, text string) ([]domain.RawConcept, error) {
	out, err := e.ai.GenerateJSON(ctx, extractionSystemPrompt, text, "concept_extraction", extractionSchema)
	if err != nil {
		return nil, fmt.Errorf("concept extraction call: %w", err)
	}

	raws, err := decodeConcepts(out)
	if err != nil {
		return nil, err
	}
	e.log.Debug("Extracted concepts", "count", len(raws))
	return raws, nil
}

// decodeConcepts validates the loosely-structured model payload into typed
// records. Any shape mismatch fails the whole extraction.
func decodeConcepts(out map[string]any) ([]domain.RawConcept, error) {
	rawList, ok := out["concepts"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing concepts array", ErrMalformedExtraction)
	}

	raws := make([]domain.RawConcept, 0, len(rawList))
	for i, item := range rawList {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: concepts[%d] is not an object", ErrMalformedExtraction, i)
		}
		name, ok := entry["name"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: concepts[%d].name is not a string", ErrMalformedExtraction, i)
		}
		definition, ok := entry["definition"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: concepts[%d].definition is not a string", ErrMalformedExtraction, i)
		}
		evidence, ok := entry["text_evidence"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: concepts[%d].text_evidence is not a string", ErrMalformedExtraction, i)
		}
		raws = append(raws, domain.RawConcept{
			Name:         name,
			Definition:   definition,
			TextEvidence: evidence,
		})
	}
	return raws, nil
}
