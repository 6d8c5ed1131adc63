package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the number of units a pool runs at once.
const DefaultWorkers = 10

// ErrUnitPanicked wraps a panic recovered from a unit.
var ErrUnitPanicked = errors.New("unit panicked")

// Pool bounds the number of units in flight. Create one per process and share
// it between calls; it holds no goroutines of its own.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool creates a pool with the given number of permits. Values below one
// fall back to DefaultWorkers.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers)), size: workers}
}

// Size returns the number of permits.
func (p *Pool) Size() int {
	return p.size
}

// Outcome is the result of one unit. Index is the item's position in the
// slice passed to Run.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

// UnitFunc processes one item.
type UnitFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Run submits one unit per item to pool and blocks until all have finished.
// Outcomes are returned in completion order. A panicking unit yields an
// outcome wrapping ErrUnitPanicked. Units still waiting for a permit when ctx
// is cancelled do not start and report ctx.Err(). onProgress may be nil.
func Run[T, R any](
	ctx context.Context,
	pool *Pool,
	items []T,
	fn UnitFunc[T, R],
	onProgress ProgressCallback,
) []Outcome[R] {
	if len(items) == 0 {
		return []Outcome[R]{}
	}

	progress := NewProgress(len(items))
	results := make(chan Outcome[R], len(items))

	for i, item := range items {
		go func() {
			if err := pool.sem.Acquire(ctx, 1); err != nil {
				results <- Outcome[R]{Index: i, Err: err}
				return
			}
			defer pool.sem.Release(1)
			results <- runUnit(ctx, i, item, fn)
		}()
	}

	outcomes := make([]Outcome[R], 0, len(items))
	for range items {
		o := <-results
		outcomes = append(outcomes, o)
		progress.Add(1, o.Err)
		if onProgress != nil {
			onProgress(progress.Snapshot())
		}
	}
	return outcomes
}

func runUnit[T, R any](ctx context.Context, index int, item T, fn UnitFunc[T, R]) (out Outcome[R]) {
	out.Index = index
	defer func() {
		if r := recover(); r != nil {
			var zero R
			out.Value = zero
			out.Err = fmt.Errorf("%w: %v", ErrUnitPanicked, r)
		}
	}()
	out.Value, out.Err = fn(ctx, item)
	return out
}
