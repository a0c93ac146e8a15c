package conceptextract

import (
	"strings"

	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
)

// CanonicalName derives the deduplication key for a concept name: trimmed,
// then lower-cased. Internal whitespace is left alone.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BuildMentions canonicalizes raw extractions into mention records for one
// document. Extractions whose trimmed name is empty are discarded; surviving
// mentions keep the input order.
func BuildMentions(documentID string, raws []domain.RawConcept) []domain.ConceptMention {
	mentions := make([]domain.ConceptMention, 0, len(raws))
	for _, raw := range raws {
		original := strings.TrimSpace(raw.Name)
		if original == "" {
			continue
		}
		mentions = append(mentions, domain.ConceptMention{
			DocumentID:    documentID,
			CanonicalName: strings.ToLower(original),
			OriginalName:  original,
			Definition:    raw.Definition,
			TextEvidence:  raw.TextEvidence,
		})
	}
	return mentions
}
