package worker_pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_PreservesOrder(t *testing.T) {
	pool := NewWorkerPool(3)
	tasks := make([]Task[int], 6)
	for i := range tasks {
		n := i
		tasks[i] = func(ctx context.Context) (int, error) {
			// Later tasks finish first
			time.Sleep(time.Duration(6-n) * time.Millisecond)
			return n * n, nil
		}
	}

	results := Run(context.Background(), pool, tasks)
	require.Len(t, results, 6)
	for i, r := range results {
		assert.NoError(t, r.Error)
		assert.Equal(t, i*i, r.Value)
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	var running, peak int32

	tasks := make([]Task[struct{}], 8)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (struct{}, error) {
			now := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}, nil
		}
	}

	Run(context.Background(), pool, tasks)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRun_ErrorsStayWithTheirTask(t *testing.T) {
	boom := errors.New("boom")
	results := Run(context.Background(), NewWorkerPool(2), []Task[string]{
		func(ctx context.Context) (string, error) { return "ok", nil },
		func(ctx context.Context) (string, error) { return "", boom },
	})
	assert.Equal(t, "ok", results[0].Value)
	assert.ErrorIs(t, results[1].Error, boom)
}

func TestRun_CancelledContextSkipsPendingTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(1)
	var started int32

	tasks := []Task[int]{
		func(ctx context.Context) (int, error) {
			atomic.AddInt32(&started, 1)
			cancel()
			<-ctx.Done()
			return 1, nil
		},
		func(ctx context.Context) (int, error) {
			atomic.AddInt32(&started, 1)
			return 2, nil
		},
	}

	results := Run(ctx, pool, tasks)
	assert.Equal(t, 1, results[0].Value)
	assert.ErrorIs(t, results[1].Error, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&started))
}

func TestRun_Empty(t *testing.T) {
	assert.Empty(t, Run[int](context.Background(), NewWorkerPool(1), nil))
}

func TestBounded(t *testing.T) {
	assert.Equal(t, 2, Bounded(5, 2).GetMaxWorkers())
	assert.Equal(t, 3, Bounded(3, 10).GetMaxWorkers())
	assert.Equal(t, 4, Bounded(0, 4).GetMaxWorkers())
	assert.Equal(t, 1, Bounded(5, 0).GetMaxWorkers())
}
