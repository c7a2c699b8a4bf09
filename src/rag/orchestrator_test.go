package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Protocol-Lattice/go-rag/src/cache"
	"github.com/Protocol-Lattice/go-rag/src/embed"
	"github.com/Protocol-Lattice/go-rag/src/history"
	"github.com/Protocol-Lattice/go-rag/src/index"
)

type mockModel struct {
	CallCount int32
	Response  string
	Err       error
	Delay     time.Duration

	mu         sync.Mutex
	LastPrompt string
}

func (m *mockModel) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&m.CallCount, 1)
	m.mu.Lock()
	m.LastPrompt = prompt
	m.mu.Unlock()
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "answer to: " + lastLine(prompt), nil
}

func (m *mockModel) Name() string { return "mock-model" }

func lastLine(prompt string) string {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	return lines[len(lines)-1]
}

type mockIndex struct {
	Docs []index.ScoredDocument
	Err  error
}

func (m *mockIndex) Index(context.Context, index.Document, []float32) error { return nil }

func (m *mockIndex) Search(context.Context, []float32, int) ([]index.ScoredDocument, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Docs, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func newTestOrchestrator(t *testing.T, model *mockModel, idx index.VectorIndex, opts Options) (*Orchestrator, *history.MemoryStore, *cache.ResponseCache) {
	t.Helper()
	hist := history.NewMemoryStore()
	responseCache := cache.NewResponseCache(64, "")
	o, err := NewOrchestrator(model, embed.DummyEmbedder{}, idx, responseCache, hist, opts)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o, hist, responseCache
}

func TestAnswer_EmptyIndex(t *testing.T) {
	model := &mockModel{Response: "hi there"}
	o, hist, _ := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())

	answer, err := o.Answer(context.Background(), "s1", "Hello")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "hi there" {
		t.Errorf("unexpected answer %q", answer)
	}
	if count := atomic.LoadInt32(&model.CallCount); count != 1 {
		t.Errorf("expected 1 generation, got %d", count)
	}

	turns, _ := hist.Recent(context.Background(), "s1", 10)
	if len(turns) != 2 {
		t.Fatalf("expected user+assistant turns, got %d", len(turns))
	}
	if turns[0].Role != history.RoleUser || turns[0].Text != "Hello" {
		t.Errorf("unexpected user turn %+v", turns[0])
	}
	if turns[1].Role != history.RoleAssistant || turns[1].Text != "hi there" {
		t.Errorf("unexpected assistant turn %+v", turns[1])
	}
}

func TestAnswer_ContextPreservesRanking(t *testing.T) {
	idx := &mockIndex{Docs: []index.ScoredDocument{
		{Document: index.Document{ID: "d1", Text: "first doc"}, Score: 0.9},
		{Document: index.Document{ID: "d2", Text: "second doc"}, Score: 0.7},
	}}
	model := &mockModel{Response: "ok"}
	o, _, _ := newTestOrchestrator(t, model, idx, DefaultOptions())

	if _, err := o.Answer(context.Background(), "s1", "query"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(model.LastPrompt, "first doc\n\nsecond doc") {
		t.Errorf("context must join docs highest-similarity first, got:\n%s", model.LastPrompt)
	}
}

func TestAnswer_GenerationFailureLeavesNoState(t *testing.T) {
	model := &mockModel{Err: errors.New("rate limited")}
	o, hist, responseCache := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())

	_, err := o.Answer(context.Background(), "s1", "Hello")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}

	turns, _ := hist.Recent(context.Background(), "s1", 10)
	if len(turns) != 0 {
		t.Errorf("history must stay untouched on generation failure, got %d turns", len(turns))
	}
	if responseCache.Len() != 0 {
		t.Errorf("cache must stay untouched on generation failure, got %d entries", responseCache.Len())
	}
}

func TestAnswer_SecondCallHitsCache(t *testing.T) {
	model := &mockModel{Response: "cached answer"}
	o, _, _ := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())
	ctx := context.Background()

	if _, err := o.Answer(ctx, "s1", "same question"); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, err := o.Answer(ctx, "s1", "same question"); err != nil {
		t.Fatalf("second answer: %v", err)
	}
	if count := atomic.LoadInt32(&model.CallCount); count != 1 {
		t.Errorf("expected a single generation, got %d", count)
	}

	snap := o.Metrics()
	if snap.CacheHits != 1 || snap.CacheMisses != 1 {
		t.Errorf("expected 1 hit / 1 miss, got %d/%d", snap.CacheHits, snap.CacheMisses)
	}
}

func TestAnswer_CacheHitStillPersistsTurns(t *testing.T) {
	model := &mockModel{Response: "answer"}
	o, hist, _ := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())
	ctx := context.Background()

	o.Answer(ctx, "s1", "q")
	o.Answer(ctx, "s1", "q")

	turns, _ := hist.Recent(ctx, "s1", 10)
	if len(turns) != 4 {
		t.Errorf("both calls must persist their turns, got %d", len(turns))
	}
}

func TestAnswer_RetrievalDegradesToEmptyContext(t *testing.T) {
	model := &mockModel{Response: "degraded"}
	idx := &mockIndex{Err: errors.New("index offline")}
	o, _, _ := newTestOrchestrator(t, model, idx, DefaultOptions())

	answer, err := o.Answer(context.Background(), "s1", "q")
	if err != nil {
		t.Fatalf("degrade policy must not fail the request: %v", err)
	}
	if answer != "degraded" {
		t.Errorf("unexpected answer %q", answer)
	}
	if snap := o.Metrics(); snap.RetrievalFailures != 1 {
		t.Errorf("expected 1 retrieval failure, got %d", snap.RetrievalFailures)
	}
}

func TestAnswer_RetrievalAbortPolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.RetrievalPolicy = Abort

	idx := &mockIndex{Err: errors.New("index offline")}
	model := &mockModel{}
	o, hist, _ := newTestOrchestrator(t, model, idx, opts)

	_, err := o.Answer(context.Background(), "s1", "q")
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	if count := atomic.LoadInt32(&model.CallCount); count != 0 {
		t.Errorf("generation must not run after abort, got %d calls", count)
	}
	turns, _ := hist.Recent(context.Background(), "s1", 10)
	if len(turns) != 0 {
		t.Errorf("history must stay untouched, got %d turns", len(turns))
	}
}

func TestAnswer_EmbeddingAbortPolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.RetrievalPolicy = Abort

	hist := history.NewMemoryStore()
	o, err := NewOrchestrator(&mockModel{}, failingEmbedder{}, &mockIndex{}, cache.NewResponseCache(8, ""), hist, opts)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	if _, err := o.Answer(context.Background(), "s1", "q"); !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestAnswer_InvalidSession(t *testing.T) {
	model := &mockModel{}
	o, _, _ := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())

	for _, key := range []string{"", "  "} {
		if _, err := o.Answer(context.Background(), key, "q"); !errors.Is(err, history.ErrInvalidSession) {
			t.Errorf("session %q: expected ErrInvalidSession, got %v", key, err)
		}
	}
	if count := atomic.LoadInt32(&model.CallCount); count != 0 {
		t.Errorf("invalid sessions must not reach the model, got %d calls", count)
	}
}

func TestAnswer_TimeoutLeavesNoState(t *testing.T) {
	opts := DefaultOptions()
	opts.RequestTimeout = 20 * time.Millisecond

	model := &mockModel{Delay: 200 * time.Millisecond, Response: "slow"}
	o, hist, responseCache := newTestOrchestrator(t, model, &mockIndex{}, opts)

	_, err := o.Answer(context.Background(), "s1", "q")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	turns, _ := hist.Recent(context.Background(), "s1", 10)
	if len(turns) != 0 {
		t.Errorf("history must stay untouched on timeout, got %d turns", len(turns))
	}
	if responseCache.Len() != 0 {
		t.Errorf("cache must stay untouched on timeout, got %d entries", responseCache.Len())
	}
}

func TestAnswer_ConcurrentSessionsStayIsolated(t *testing.T) {
	model := &mockModel{}
	o, hist, _ := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := o.Answer(ctx, "session-a", "question a"); err != nil {
			t.Errorf("session-a: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := o.Answer(ctx, "session-b", "question b"); err != nil {
			t.Errorf("session-b: %v", err)
		}
	}()
	wg.Wait()

	a, _ := hist.Recent(ctx, "session-a", 10)
	b, _ := hist.Recent(ctx, "session-b", 10)
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 turns per session, got %d and %d", len(a), len(b))
	}
	if a[0].Text != "question a" || b[0].Text != "question b" {
		t.Errorf("turns leaked across sessions: %q / %q", a[0].Text, b[0].Text)
	}
}

func TestReset_ClearsSession(t *testing.T) {
	model := &mockModel{}
	o, hist, _ := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())
	ctx := context.Background()

	o.Answer(ctx, "s1", "q")
	if err := o.Reset(ctx, "s1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	turns, _ := hist.Recent(ctx, "s1", 10)
	if len(turns) != 0 {
		t.Errorf("expected empty history after reset, got %d turns", len(turns))
	}
}

func TestClearCache_ForcesRegeneration(t *testing.T) {
	model := &mockModel{Response: "r"}
	o, _, _ := newTestOrchestrator(t, model, &mockIndex{}, DefaultOptions())
	ctx := context.Background()

	o.Answer(ctx, "s1", "q")
	o.ClearCache()
	o.Answer(ctx, "s1", "q")

	if count := atomic.LoadInt32(&model.CallCount); count != 2 {
		t.Errorf("expected regeneration after cache clear, got %d calls", count)
	}
}
