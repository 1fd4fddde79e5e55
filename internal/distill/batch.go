package distill

import (
	"context"
	"fmt"
	"sync"
)

// Result pairs an input item with the outcome of its work function.
type Result[T any] struct {
	Item T
	Err  error
}

// RunBatch executes fn over items with at most limit in flight at once.
//
// Items are processed in fixed chunks of limit: a chunk must fully settle
// before the next one starts, so failures in one chunk never starve or
// reorder later items. Per-item failures (including panics inside fn) are
// captured in the returned slice; RunBatch itself never fails.
//
// Cancellation is checked at chunk boundaries: once ctx is done, all
// remaining items are marked with ctx's error without calling fn.
func RunBatch[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) []Result[T] {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result[T], len(items))
	for start := 0; start < len(items); start += limit {
		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				results[i] = Result[T]{Item: items[i], Err: err}
			}
			break
		}

		end := start + limit
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = Result[T]{Item: items[i], Err: runOne(ctx, items[i], fn)}
			}(i)
		}
		wg.Wait()
	}
	return results
}

// runOne invokes fn, converting a panic into an error so a single bad item
// cannot take down the whole batch.
func runOne[T any](ctx context.Context, item T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, item)
}
