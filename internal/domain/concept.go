package domain

// RawConcept is one loosely-structured concept candidate returned by the
// extraction model, validated into this shape at the model boundary.
type RawConcept struct {
	Name         string `json:"name"`
	Definition   string `json:"definition"`
	TextEvidence string `json:"text_evidence"`
}

// ConceptMention is a canonicalized (document, concept) relationship ready
// for the graph. CanonicalName is the deduplication key; OriginalName keeps
// the exact surface form from the source document.
type ConceptMention struct {
	DocumentID    string `json:"document_id"`
	CanonicalName string `json:"canonical_name"`
	OriginalName  string `json:"original_name"`
	Definition    string `json:"definition"`
	TextEvidence  string `json:"text_evidence"`
}
