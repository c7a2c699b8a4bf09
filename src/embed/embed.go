package embed

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
)

// Embedder is a pluggable text-embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrNotSupported is returned by providers that do not offer embeddings.
var ErrNotSupported = errors.New("embeddings not supported by this provider")

// ---------- Dummy (fallback) ----------

// DummyEmbedder produces deterministic vectors without network calls.
// Useful for tests and offline runs; not semantically meaningful.
type DummyEmbedder struct{}

func (DummyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return DummyEmbedding(text), nil
}

// DummyEmbedding folds the bytes of text into a fixed 768-dim vector.
func DummyEmbedding(text string) []float32 {
	vec := make([]float32, 768)
	for i, ch := range []byte(text) {
		vec[i%768] += float32(ch) / 255.0
	}
	return vec
}

// AutoEmbedder chooses a provider from env:
// RAG_EMBED_PROVIDER=openai|google|gemini|ollama|claude|fastembed
// RAG_EMBED_MODEL=<model string>
// Falls back to DummyEmbedder when nothing usable is configured.
func AutoEmbedder() Embedder {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("RAG_EMBED_PROVIDER")))
	model := strings.TrimSpace(os.Getenv("RAG_EMBED_MODEL"))

	switch provider {
	case "openai":
		if e, err := NewOpenAIEmbedder(model); err == nil {
			return e
		}
	case "google", "gemini", "vertex", "vertexai":
		if e, err := NewVertexAIEmbedder(model); err == nil {
			return e
		}
	case "ollama":
		if e, err := NewOllamaEmbedder(model); err == nil {
			return e
		}
	case "claude", "anthropic":
		if e, err := NewClaudeEmbedder(model); err == nil {
			return e
		}
	case "fastembed":
		if opts := defaultFastEmbedOptions(); opts != nil {
			if e, err := NewFastEmbedder(context.Background(), opts); err == nil {
				return e
			}
		}
	}

	log.Printf("AutoEmbedder: falling back to DummyEmbedder")
	return DummyEmbedder{}
}
