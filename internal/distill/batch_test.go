package distill

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBatchProcessesAll(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	var sum atomic.Int64

	results := RunBatch(context.Background(), items, 3, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})

	if len(results) != len(items) {
		t.Fatalf("results = %d, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("item %d: unexpected error %v", i, r.Err)
		}
		if r.Item != items[i] {
			t.Errorf("result %d carries item %d, want %d", i, r.Item, items[i])
		}
	}
	if sum.Load() != 28 {
		t.Errorf("sum = %d, want 28", sum.Load())
	}
}

func TestRunBatchRespectsCeiling(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int64

	items := make([]int, 20)
	RunBatch(context.Background(), items, limit, func(_ context.Context, _ int) error {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	if peak.Load() > limit {
		t.Errorf("peak in-flight = %d, want <= %d", peak.Load(), limit)
	}
}

func TestRunBatchChunkSettlesBeforeNext(t *testing.T) {
	// With limit 2, items 0 and 1 form the first chunk. Item 2 must not
	// start until both have finished, even though item 0 is slow.
	var mu sync.Mutex
	var order []int

	items := []int{0, 1, 2}
	RunBatch(context.Background(), items, 2, func(_ context.Context, n int) error {
		if n == 0 {
			time.Sleep(20 * time.Millisecond)
		}
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
		return nil
	})

	if len(order) != 3 {
		t.Fatalf("order = %v", order)
	}
	if order[2] != 2 {
		t.Errorf("item 2 finished before the first chunk settled: %v", order)
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	items := []int{1, 2, 3, 4}

	results := RunBatch(context.Background(), items, 2, func(_ context.Context, n int) error {
		if n == 2 {
			return boom
		}
		return nil
	})

	for i, r := range results {
		if items[i] == 2 {
			if !errors.Is(r.Err, boom) {
				t.Errorf("item 2 error = %v, want boom", r.Err)
			}
		} else if r.Err != nil {
			t.Errorf("item %d: unexpected error %v", items[i], r.Err)
		}
	}
}

func TestRunBatchRecoversPanics(t *testing.T) {
	items := []int{1, 2}
	results := RunBatch(context.Background(), items, 2, func(_ context.Context, n int) error {
		if n == 1 {
			panic("bad item")
		}
		return nil
	})

	if results[0].Err == nil {
		t.Error("expected error for panicking item")
	}
	if results[1].Err != nil {
		t.Errorf("item 2: unexpected error %v", results[1].Err)
	}
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int64
	items := make([]int, 10)
	results := RunBatch(ctx, items, 2, func(_ context.Context, _ int) error {
		if calls.Add(1) == 1 {
			cancel()
		}
		return nil
	})

	// The first chunk ran; everything after the cancelled boundary is
	// marked with the context error and never executed.
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	canceled := 0
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			canceled++
		}
	}
	if canceled != 8 {
		t.Errorf("canceled items = %d, want 8", canceled)
	}
}

func TestRunBatchZeroLimit(t *testing.T) {
	// A non-positive limit degrades to sequential execution, not a panic.
	results := RunBatch(context.Background(), []int{1, 2, 3}, 0, func(_ context.Context, _ int) error {
		return nil
	})
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
}

func TestRunBatchEmptyItems(t *testing.T) {
	results := RunBatch(context.Background(), nil, 5, func(_ context.Context, _ int) error {
		t.Error("fn should not be called")
		return nil
	})
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}
