package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/Protocol-Lattice/go-rag/src/concurrent"
	"github.com/Protocol-Lattice/go-rag/src/embed"
	"github.com/Protocol-Lattice/go-rag/src/index"
)

// Ingestor is a one-time batch job that turns text files into indexed
// documents. It runs outside the request-time pipeline.
type Ingestor struct {
	Embedder    embed.Embedder
	Index       index.VectorIndex
	Chunker     Chunker
	Concurrency int
}

// IngestFiles reads each path, chunks it, embeds the chunks with bounded
// parallelism and writes them to the index. Returns the number of indexed
// documents.
func (ing *Ingestor) IngestFiles(ctx context.Context, paths []string) (int, error) {
	if ing.Embedder == nil || ing.Index == nil {
		return 0, fmt.Errorf("ingestor needs an embedder and an index")
	}

	var docs []index.Document
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			data, err := os.ReadFile(m)
			if err != nil {
				return 0, fmt.Errorf("read %s: %w", m, err)
			}
			ids, chunks, err := ing.Chunker.Chunk(filepath.Base(m), string(data))
			if err != nil {
				return 0, fmt.Errorf("chunk %s: %w", m, err)
			}
			batch := uuid.NewString()
			for i, text := range chunks {
				docs = append(docs, index.Document{
					ID:   ids[i],
					Text: text,
					Metadata: map[string]string{
						"source":      m,
						"chunk_index": strconv.Itoa(i),
						"batch":       batch,
					},
				})
			}
		}
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no documents found")
	}

	embeddings, err := concurrent.ParallelMap(ctx, docs, func(d index.Document) ([]float32, error) {
		return ing.Embedder.Embed(ctx, d.Text)
	}, ing.Concurrency)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}

	for i, d := range docs {
		if err := ing.Index.Index(ctx, d, embeddings[i]); err != nil {
			return i, fmt.Errorf("index %s: %w", d.ID, err)
		}
	}
	return len(docs), nil
}
