package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/Protocol-Lattice/go-rag/src/cache"
	"github.com/Protocol-Lattice/go-rag/src/embed"
	"github.com/Protocol-Lattice/go-rag/src/history"
	"github.com/Protocol-Lattice/go-rag/src/index"
	"github.com/Protocol-Lattice/go-rag/src/models"
)

// Orchestrator runs the answer pipeline:
// retrieve context, compose a prompt, consult the response cache, generate
// on miss, persist the exchange, respond. All collaborators are injected.
type Orchestrator struct {
	model    models.Model
	embedder embed.Embedder
	index    index.VectorIndex
	cache    *cache.ResponseCache
	history  history.Store
	opts     Options
	metrics  Metrics
}

// NewOrchestrator wires the pipeline. Model, embedder, index and history are
// required; a nil cache disables caching-by-file and gets an in-process one.
func NewOrchestrator(model models.Model, embedder embed.Embedder, idx index.VectorIndex, responseCache *cache.ResponseCache, hist history.Store, opts Options) (*Orchestrator, error) {
	if model == nil {
		return nil, errors.New("model is nil")
	}
	if embedder == nil {
		return nil, errors.New("embedder is nil")
	}
	if idx == nil {
		return nil, errors.New("vector index is nil")
	}
	if hist == nil {
		return nil, errors.New("history store is nil")
	}
	if responseCache == nil {
		responseCache = cache.NewResponseCache(1024, "")
	}
	return &Orchestrator{
		model:    model,
		embedder: embedder,
		index:    idx,
		cache:    responseCache,
		history:  hist,
		opts:     opts.withDefaults(),
	}, nil
}

// Answer runs one question through the pipeline for the given session.
func (o *Orchestrator) Answer(ctx context.Context, sessionKey, question string) (string, error) {
	if err := history.ValidateSessionKey(sessionKey); err != nil {
		return "", err
	}
	o.metrics.incRequests()

	if o.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
	}

	contextBlock, err := o.retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	turns, err := o.history.Recent(ctx, sessionKey, o.opts.HistoryLimit)
	if err != nil {
		return "", err
	}
	prompt := BuildPrompt(contextBlock, turns, question)

	// The cache key uses a history-free rendering so cached answers are shared
	// across sessions and repeat questions hit regardless of prior turns.
	keyPrompt := BuildPrompt(contextBlock, nil, question)
	key := cache.DeriveKey(o.model.Name(), o.opts.GenerationParams.Canonical(), keyPrompt)
	response, hit := "", false
	if entry, ok := o.cache.Lookup(key); ok {
		response, hit = entry.Response, true
		o.metrics.incCacheHits()
	} else {
		o.metrics.incCacheMisses()
	}

	if !hit {
		response, err = o.model.Generate(ctx, prompt)
		if err != nil {
			return "", o.generationError(ctx, err)
		}
		if err := ctx.Err(); err != nil {
			// Cancelled while generating: leave cache and history untouched.
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		o.metrics.incGenerations()
		o.cache.Store(key, response, o.opts.CacheTTL)
	}

	// Persist only after a well-defined response exists.
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	err = o.history.Append(ctx, sessionKey,
		history.Turn{Role: history.RoleUser, Text: question},
		history.Turn{Role: history.RoleAssistant, Text: response},
	)
	if err != nil {
		return "", fmt.Errorf("persist turns: %w", err)
	}

	return response, nil
}

// retrieve embeds the question and searches the index, degrading to an empty
// context block when the configured policy allows it.
func (o *Orchestrator) retrieve(ctx context.Context, question string) (string, error) {
	embedding, err := o.embedder.Embed(ctx, question)
	if err != nil {
		o.metrics.incRetrievalFailures()
		if o.opts.RetrievalPolicy == Abort {
			return "", fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
		}
		return "", nil
	}
	docs, err := o.index.Search(ctx, embedding, o.opts.TopK)
	if err != nil {
		o.metrics.incRetrievalFailures()
		if o.opts.RetrievalPolicy == Abort {
			return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		}
		return "", nil
	}
	return ContextBlock(docs), nil
}

func (o *Orchestrator) generationError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ErrTimeout, ctxErr)
	}
	return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
}

// Reset clears the conversation history for a session.
func (o *Orchestrator) Reset(ctx context.Context, sessionKey string) error {
	return o.history.Clear(ctx, sessionKey)
}

// ClearCache wipes all cached completions.
func (o *Orchestrator) ClearCache() {
	o.cache.Clear()
}

// Metrics returns a snapshot of the pipeline counters.
func (o *Orchestrator) Metrics() MetricsSnapshot {
	return o.metrics.Snapshot()
}
