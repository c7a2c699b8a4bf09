package rag

import "sync/atomic"

// Metrics captures lightweight runtime counters for observability.
type Metrics struct {
	requests          atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	generations       atomic.Int64
	retrievalFailures atomic.Int64
}

func (m *Metrics) incRequests()          { m.requests.Add(1) }
func (m *Metrics) incCacheHits()         { m.cacheHits.Add(1) }
func (m *Metrics) incCacheMisses()       { m.cacheMisses.Add(1) }
func (m *Metrics) incGenerations()       { m.generations.Add(1) }
func (m *Metrics) incRetrievalFailures() { m.retrievalFailures.Add(1) }

// MetricsSnapshot holds the current values for reporting/logging.
type MetricsSnapshot struct {
	Requests          int64 `json:"requests"`
	CacheHits         int64 `json:"cache_hits"`
	CacheMisses       int64 `json:"cache_misses"`
	Generations       int64 `json:"generations"`
	RetrievalFailures int64 `json:"retrieval_failures"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Requests:          m.requests.Load(),
		CacheHits:         m.cacheHits.Load(),
		CacheMisses:       m.cacheMisses.Load(),
		Generations:       m.generations.Load(),
		RetrievalFailures: m.retrievalFailures.Load(),
	}
}
