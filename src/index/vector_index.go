package index

import "context"

// Document is an indexed text fragment. Immutable once indexed.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoredDocument pairs a document with its similarity to a query vector.
type ScoredDocument struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// VectorIndex is the contract for nearest-neighbour backends.
type VectorIndex interface {
	Index(ctx context.Context, doc Document, embedding []float32) error
	// Search returns up to k documents ordered by descending similarity.
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]ScoredDocument, error)
}

// SchemaInitializer allows backends to expose optional schema/bootstrap routines.
type SchemaInitializer interface {
	CreateSchema(ctx context.Context, schemaPath string) error
}
