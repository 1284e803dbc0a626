package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is the outcome of processing one input. A failed task does not abort
// its siblings.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// OK reports whether the task succeeded.
func (t Task[T, R]) OK() bool { return t.Err == nil }

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs one task per input on a bounded number of goroutines.
type Pool[T any, R any] struct {
	name    string
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool. A non-positive worker count uses GOMAXPROCS.
func NewPool[T any, R any](name string, workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool[T, R]{
		name:    name,
		workers: workers,
		process: fn,
	}
}

// Execute runs every input through the pool and returns results in input
// order. Inputs not started before ctx is cancelled carry ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i].Input = inputs[i]
	}
	inputCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(p.workers, len(inputs)); w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx].Result = result
				results[idx].Err = err
				if err != nil {
					log.Warn().Err(err).Str("pool", p.name).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
			}
		}(w)
	}

	sent := 0
send:
	for ; sent < len(inputs); sent++ {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- sent:
		}
	}
	close(inputCh)
	wg.Wait()

	for i := sent; i < len(inputs); i++ {
		results[i].Err = ctx.Err()
	}
	return results
}

// Succeeded counts the tasks that completed without error.
func Succeeded[T any, R any](tasks []Task[T, R]) int {
	n := 0
	for _, t := range tasks {
		if t.OK() {
			n++
		}
	}
	return n
}
