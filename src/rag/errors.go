package rag

import "errors"

// Error taxonomy for the answer pipeline. Callers branch with errors.Is.
var (
	// ErrEmbeddingUnavailable wraps embedding-provider failures during retrieval.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrIndexUnavailable wraps vector-index failures during retrieval.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrGenerationFailed wraps completion-provider failures. Fatal per request:
	// no history or cache mutation happens after it.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrTimeout reports that the request deadline elapsed or the context was
	// cancelled. No state is mutated.
	ErrTimeout = errors.New("request timed out")
)
