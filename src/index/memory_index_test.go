package index

import (
	"context"
	"testing"
)

func TestMemoryIndex_SearchOrdering(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Index(ctx, Document{ID: "far", Text: "far"}, []float32{0, 1, 0})
	idx.Index(ctx, Document{ID: "near", Text: "near"}, []float32{1, 0.1, 0})
	idx.Index(ctx, Document{ID: "exact", Text: "exact"}, []float32{1, 0, 0})

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.ID != "exact" || results[1].Document.ID != "near" {
		t.Errorf("expected [exact near], got [%s %s]", results[0].Document.ID, results[1].Document.ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("scores must descend")
	}
}

func TestMemoryIndex_SearchEmpty(t *testing.T) {
	idx := NewMemoryIndex()
	results, err := idx.Search(context.Background(), []float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(results))
	}
}

func TestMemoryIndex_SameIDOverwrites(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Index(ctx, Document{ID: "d", Text: "old"}, []float32{1, 0})
	idx.Index(ctx, Document{ID: "d", Text: "new"}, []float32{1, 0})

	count, _ := idx.Count(ctx)
	if count != 1 {
		t.Fatalf("expected re-ingestion to overwrite, got %d docs", count)
	}
	results, _ := idx.Search(ctx, []float32{1, 0}, 1)
	if results[0].Document.Text != "new" {
		t.Errorf("expected latest text, got %q", results[0].Document.Text)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors should score ~1, got %f", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors should score 0, got %f", got)
	}
	if got := cosineSimilarity(nil, []float32{1}); got != 0 {
		t.Errorf("empty vector should score 0, got %f", got)
	}
}
