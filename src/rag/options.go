package rag

import (
	"time"

	"github.com/Protocol-Lattice/go-rag/src/models"
)

// RetrievalPolicy decides what happens when embedding or search fails.
type RetrievalPolicy string

const (
	// DegradeToEmpty answers with an empty context block instead of failing.
	DegradeToEmpty RetrievalPolicy = "degrade"
	// Abort fails the request when retrieval fails.
	Abort RetrievalPolicy = "abort"
)

// Options configures the orchestrator.
type Options struct {
	// TopK is the retrieval breadth for vector search.
	TopK int
	// HistoryLimit bounds how many trailing turns enter the prompt.
	HistoryLimit int
	// CacheTTL expires cached completions; 0 keeps them until eviction.
	CacheTTL time.Duration
	// RetrievalPolicy defaults to DegradeToEmpty.
	RetrievalPolicy RetrievalPolicy
	// RequestTimeout bounds one Answer call end to end; 0 disables it.
	RequestTimeout time.Duration
	// GenerationParams is passed through to the completion provider and
	// folded into cache keys.
	GenerationParams models.Params
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		TopK:            4,
		HistoryLimit:    5,
		RetrievalPolicy: DegradeToEmpty,
	}
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 4
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 5
	}
	if o.RetrievalPolicy == "" {
		o.RetrievalPolicy = DegradeToEmpty
	}
	return o
}
