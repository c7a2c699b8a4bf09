package concurrent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestParallelMap_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 3, 2, 4}
	out, err := ParallelMap(context.Background(), items, func(n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("v%d", n), nil
	}, 5)
	if err != nil {
		t.Fatalf("parallel map: %v", err)
	}
	for i, n := range items {
		if out[i] != fmt.Sprintf("v%d", n) {
			t.Errorf("index %d: expected v%d, got %s", i, n, out[i])
		}
	}
}

func TestParallelMap_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ParallelMap(context.Background(), []int{1, 2, 3}, func(n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	}, 2)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestParallelMap_Empty(t *testing.T) {
	out, err := ParallelMap(context.Background(), nil, func(n int) (int, error) { return n, nil }, 4)
	if err != nil || out != nil {
		t.Errorf("expected nil/nil for empty input, got %v / %v", out, err)
	}
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	ctx := context.Background()

	var active, peak int32
	_, err := ParallelMap(ctx, []int{1, 2, 3, 4, 5, 6}, func(n int) (int, error) {
		return n, pool.Do(ctx, func() error {
			cur := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return nil
		})
	}, 6)
	if err != nil {
		t.Fatalf("pool run: %v", err)
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("pool exceeded its bound: peak %d workers", p)
	}
}

func TestWorkerPool_RespectsCancelledContext(t *testing.T) {
	pool := NewWorkerPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Do(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
