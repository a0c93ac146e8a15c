package conceptextract

import (
	"context"
	"errors"

	"github.com/khajiev13/lab-tutor-sub001/internal/domain"
)

// ErrMalformedExtraction marks model output that does not match the expected
// concept-list shape. The whole extraction fails fast; partial records are
// never propagated.
var ErrMalformedExtraction = errors.New("malformed extraction")

// Extractor is the language-model boundary: document text in, raw concept
// candidates out. A call failure is terminal for that document's extraction.
type Extractor interface {
	ExtractConcepts(ctx context.Context, text string) ([]domain.RawConcept, error)
}
