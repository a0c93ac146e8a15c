package domain

// File-processing statuses for the structural extraction pipeline.
const (
	FileStatusUploaded   = "uploaded"
	FileStatusProcessing = "processing"
	FileStatusProcessed  = "processed"
	FileStatusFailed     = "failed"
)

// Embedding statuses. Transitions are monotonic per document:
// not_started -> in_progress -> {completed | failed}; failed -> in_progress
// on retry. A document never regresses to not_started.
const (
	EmbeddingStatusNotStarted = "not_started"
	EmbeddingStatusInProgress = "in_progress"
	EmbeddingStatusCompleted  = "completed"
	EmbeddingStatusFailed     = "failed"
)

// EmbeddingTransitionAllowed reports whether moving from one embedding
// status to another respects the state machine above. completed is terminal:
// only not_started and failed documents may enter a run.
func EmbeddingTransitionAllowed(from, to string) bool {
	switch to {
	case EmbeddingStatusInProgress:
		return from == EmbeddingStatusNotStarted || from == EmbeddingStatusFailed
	case EmbeddingStatusCompleted, EmbeddingStatusFailed:
		return from == EmbeddingStatusInProgress
	default:
		return false
	}
}
