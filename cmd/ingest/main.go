package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Protocol-Lattice/go-rag/src/embed"
	"github.com/Protocol-Lattice/go-rag/src/index"
	"github.com/Protocol-Lattice/go-rag/src/ingest"
)

func main() {
	_ = godotenv.Load()

	indexBackend := flag.String("index", "postgres", "vector index backend: memory|postgres|qdrant")
	pgConn := flag.String("pg-conn", os.Getenv("DATABASE_URL"), "Postgres connection string (index=postgres)")
	schemaPath := flag.String("schema", "", "optional schema file applied before ingesting")
	qdrantURL := flag.String("qdrant-url", "http://localhost:6333", "Qdrant base URL (index=qdrant)")
	qdrantCollection := flag.String("qdrant-collection", "rag_documents", "Qdrant collection name")
	maxTokens := flag.Int("chunk-tokens", 512, "approximate tokens per chunk")
	concurrency := flag.Int("concurrency", 8, "parallel embedding calls")

	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatalf("usage: ingest [flags] <file-or-glob>...")
	}
	ctx := context.Background()

	var idx index.VectorIndex
	switch *indexBackend {
	case "memory":
		idx = index.NewMemoryIndex()
	case "postgres":
		pg, err := index.NewPostgresIndex(ctx, *pgConn)
		if err != nil {
			log.Fatalf("connect Postgres: %v", err)
		}
		defer pg.Close()
		idx = pg
	case "qdrant":
		idx = index.NewQdrantIndex(*qdrantURL, *qdrantCollection, os.Getenv("QDRANT_API_KEY"))
	default:
		log.Fatalf("unknown index backend: %s", *indexBackend)
	}

	if *schemaPath != "" {
		if initializer, ok := idx.(index.SchemaInitializer); ok {
			if err := initializer.CreateSchema(ctx, *schemaPath); err != nil {
				log.Fatalf("create schema: %v", err)
			}
		}
	}

	ing := &ingest.Ingestor{
		Embedder:    embed.AutoEmbedder(),
		Index:       idx,
		Chunker:     ingest.Chunker{MaxTokens: *maxTokens},
		Concurrency: *concurrency,
	}

	n, err := ing.IngestFiles(ctx, flag.Args())
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	fmt.Printf("indexed %d documents\n", n)
}
