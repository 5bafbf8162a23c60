package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Success(t *testing.T) {
	t.Parallel()
	var count atomic.Int32

	tasks := make([]Task, 3)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}}
	}

	require.NoError(t, RunParallel(context.Background(), tasks, 0))
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	t.Parallel()

	assert.NoError(t, RunParallel(context.Background(), nil, 0))
	assert.NoError(t, RunParallel(context.Background(), []Task{}, 4))
}

func TestRunParallel_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	var ran atomic.Int32

	tasks := []Task{
		{Name: "fail1", Func: func(_ context.Context) error { ran.Add(1); return err1 }},
		{Name: "ok", Func: func(_ context.Context) error { ran.Add(1); return nil }},
		{Name: "fail2", Func: func(_ context.Context) error { ran.Add(1); return err2 }},
	}

	err := RunParallel(context.Background(), tasks, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, err1)
	assert.ErrorIs(t, err, err2)
	assert.Contains(t, err.Error(), "fail1: error 1")
	assert.Equal(t, int32(3), ran.Load(), "a failure must not stop the other tasks")
}

func TestRunParallel_RespectsLimit(t *testing.T) {
	t.Parallel()
	var running, peak atomic.Int32

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{Name: "task", Func: func(_ context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}}
	}

	require.NoError(t, RunParallel(context.Background(), tasks, 2))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunParallel_WaitsForAllTasks(t *testing.T) {
	t.Parallel()
	var completed atomic.Int32

	tasks := []Task{
		{Name: "fast-fail", Func: func(_ context.Context) error {
			return errors.New("fast fail")
		}},
		{Name: "slow", Func: func(_ context.Context) error {
			time.Sleep(20 * time.Millisecond)
			completed.Add(1)
			return nil
		}},
	}

	err := RunParallel(context.Background(), tasks, 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), completed.Load())
}

func TestRunParallel_ContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task{
		{Name: "task", Func: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
				return nil
			}
		}},
	}

	err := RunParallel(ctx, tasks, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
