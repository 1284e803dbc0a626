package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ExecutePreservesOrder(t *testing.T) {
	pool := NewPool("square", 3, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4, 5})
	require.Len(t, tasks, 5)
	for i, task := range tasks {
		assert.True(t, task.OK())
		assert.Equal(t, (i+1)*(i+1), task.Result)
	}
}

func TestPool_FailureDoesNotAbortSiblings(t *testing.T) {
	var ran atomic.Int32
	pool := NewPool("mixed", 2, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		if n == 2 {
			return 0, errors.New("unreadable")
		}
		return n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4})
	assert.Equal(t, int32(4), ran.Load())
	assert.False(t, tasks[1].OK())
	assert.Equal(t, 3, Succeeded(tasks))
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool("noop", 1, func(_ context.Context, n int) (int, error) { return n, nil })
	tasks := pool.Execute(ctx, []int{1, 2, 3})
	require.Len(t, tasks, 3)
	// Whatever was not handed to a worker reports the cancellation.
	for _, task := range tasks {
		if !task.OK() {
			assert.ErrorIs(t, task.Err, context.Canceled)
		}
	}
}

func TestPool_Empty(t *testing.T) {
	pool := NewPool("empty", 4, func(_ context.Context, n int) (int, error) { return n, nil })
	assert.Empty(t, pool.Execute(context.Background(), nil))
}
