package ingest

import (
	"strings"
	"testing"
)

func TestChunker_SplitsOnWordBoundaries(t *testing.T) {
	c := Chunker{MaxTokens: 4}
	words := strings.Repeat("word ", 20)

	ids, chunks, err := c.Chunk("doc.txt", words)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if len(ids) != len(chunks) {
		t.Fatalf("ids/chunks length mismatch: %d vs %d", len(ids), len(chunks))
	}
	for _, ch := range chunks {
		if strings.HasPrefix(ch, " ") || strings.HasSuffix(ch, " ") {
			t.Errorf("chunk has stray whitespace: %q", ch)
		}
	}
}

func TestChunker_IDsAreStable(t *testing.T) {
	c := Chunker{MaxTokens: 4}
	text := strings.Repeat("word ", 20)

	ids1, _, _ := c.Chunk("notes/a.txt", text)
	ids2, _, _ := c.Chunk("notes/a.txt", text)
	if len(ids1) == 0 {
		t.Fatal("expected chunks")
	}
	for i := range ids1 {
		if ids1[i] != ids2[i] {
			t.Errorf("chunk %d: id changed across runs: %s vs %s", i, ids1[i], ids2[i])
		}
	}
	if strings.Contains(ids1[0], "/") {
		t.Errorf("ids must not contain path separators: %s", ids1[0])
	}
}

func TestChunker_EmptyText(t *testing.T) {
	c := Chunker{MaxTokens: 10}
	ids, chunks, err := c.Chunk("x", "   \n\t ")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(ids) != 0 || len(chunks) != 0 {
		t.Errorf("expected nothing for blank input, got %d chunks", len(chunks))
	}
}

func TestEstimateTokens(t *testing.T) {
	cases := map[string]int{"": 0, "hi": 1, "medium": 2, "extended1": 3, "averyverylongword!!": 4}
	for word, want := range cases {
		if got := estimateTokens(word); got != want {
			t.Errorf("estimateTokens(%q) = %d, want %d", word, got, want)
		}
	}
}
