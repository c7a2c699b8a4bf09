package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Protocol-Lattice/go-rag/src/cache"
	"github.com/Protocol-Lattice/go-rag/src/embed"
	"github.com/Protocol-Lattice/go-rag/src/history"
	"github.com/Protocol-Lattice/go-rag/src/index"
	"github.com/Protocol-Lattice/go-rag/src/models"
	"github.com/Protocol-Lattice/go-rag/src/rag"
)

func main() {
	_ = godotenv.Load()

	provider := flag.String("provider", "openai", "completion provider: openai|anthropic|gemini|ollama|dummy")
	modelName := flag.String("model", "", "model identifier (provider default if empty)")
	sessionKey := flag.String("session-id", "cli:default", "session identifier for conversation history")
	indexBackend := flag.String("index", "memory", "vector index backend: memory|postgres|qdrant")
	pgConn := flag.String("pg-conn", os.Getenv("DATABASE_URL"), "Postgres connection string (index=postgres)")
	qdrantURL := flag.String("qdrant-url", "http://localhost:6333", "Qdrant base URL (index=qdrant)")
	qdrantCollection := flag.String("qdrant-collection", "rag_documents", "Qdrant collection name")
	topK := flag.Int("top-k", 4, "retrieval breadth")
	historyLimit := flag.Int("history-limit", 5, "turns included in the prompt")
	cacheTTL := flag.Duration("cache-ttl", 0, "response cache TTL (0 = no expiry)")
	cacheFile := flag.String("cache-file", "", "optional JSON file for cache persistence")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	abortOnRetrievalFailure := flag.Bool("abort-on-retrieval-failure", false, "fail requests instead of degrading to empty context")

	flag.Parse()
	ctx := context.Background()

	model, err := models.NewModelProvider(ctx, *provider, models.Params{Model: *modelName})
	if err != nil {
		log.Fatalf("create model: %v", err)
	}

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

	opts := rag.DefaultOptions()
	opts.TopK = *topK
	opts.HistoryLimit = *historyLimit
	opts.CacheTTL = *cacheTTL
	opts.RequestTimeout = *timeout
	opts.GenerationParams = models.Params{Model: model.Name()}
	if *abortOnRetrievalFailure {
		opts.RetrievalPolicy = rag.Abort
	}

	orchestrator, err := rag.NewOrchestrator(
		model,
		embed.AutoEmbedder(),
		idx,
		cache.NewResponseCache(1024, *cacheFile),
		history.NewMemoryStore(),
		opts,
	)
	if err != nil {
		log.Fatalf("create orchestrator: %v", err)
	}

	fmt.Println("Retrieval-augmented chat. Type a question and press enter.")
	fmt.Println("Commands: /reset clears this session, /clearcache wipes the cache, /stats prints counters, exit quits.")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("read input: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || line == "exit" {
			fmt.Println("Goodbye!")
			return
		}

		switch line {
		case "/reset":
			if err := orchestrator.Reset(ctx, *sessionKey); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("session cleared")
			}
			continue
		case "/clearcache":
			orchestrator.ClearCache()
			fmt.Println("cache cleared")
			continue
		case "/stats":
			fmt.Printf("%+v\n", orchestrator.Metrics())
			continue
		}

		answer, err := orchestrator.Answer(ctx, *sessionKey, line)
		if err != nil {
			// Failures render distinctly from answers, including empty-context ones.
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
}
