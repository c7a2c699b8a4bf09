package embed

import (
	"context"
	"testing"
)

func TestDummyEmbedding_Deterministic(t *testing.T) {
	a := DummyEmbedding("retrieval augmented generation")
	b := DummyEmbedding("retrieval augmented generation")
	if len(a) != 768 {
		t.Fatalf("expected 768 dims, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("dim %d differs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestDummyEmbedding_DistinguishesText(t *testing.T) {
	a := DummyEmbedding("alpha")
	b := DummyEmbedding("omega")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different text should not embed identically")
	}
}

func TestAutoEmbedder_FallsBackToDummy(t *testing.T) {
	t.Setenv("RAG_EMBED_PROVIDER", "")
	t.Setenv("RAG_EMBED_MODEL", "")

	e := AutoEmbedder()
	if _, ok := e.(DummyEmbedder); !ok {
		t.Fatalf("expected DummyEmbedder fallback, got %T", e)
	}
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 768 {
		t.Errorf("expected 768 dims, got %d", len(vec))
	}
}
