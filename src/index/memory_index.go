package index

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex implements VectorIndex for tests and lightweight deployments.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs []storedDoc
}

type storedDoc struct {
	doc       Document
	embedding []float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) Index(_ context.Context, doc Document, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := storedDoc{doc: doc, embedding: append([]float32(nil), embedding...)}
	// Same ID overwrites in place; documents are immutable but re-ingestion happens.
	for i, d := range m.docs {
		if d.doc.ID != "" && d.doc.ID == doc.ID {
			m.docs[i] = stored
			return nil
		}
	}
	m.docs = append(m.docs, stored)
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, queryEmbedding []float32, k int) ([]ScoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 {
		return nil, nil
	}
	scored := make([]ScoredDocument, 0, len(m.docs))
	for _, d := range m.docs {
		scored = append(scored, ScoredDocument{
			Document: d.doc,
			Score:    cosineSimilarity(queryEmbedding, d.embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
