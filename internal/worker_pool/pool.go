package worker_pool

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Task represents a unit of work to execute
type Task[T any] func(ctx context.Context) (T, error)

// Result represents the result of a task execution
type Result[T any] struct {
	Value T
	Error error
}

// WorkerPool executes tasks concurrently, at most maxWorkers at a time
type WorkerPool struct {
	maxWorkers int
	sem        *semaphore.Weighted
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	return &WorkerPool{
		maxWorkers: maxWorkers,
		sem:        semaphore.NewWeighted(int64(maxWorkers)),
	}
}

// Run executes all tasks and returns their results in task order. Tasks
// that have not started when ctx is done are skipped and report ctx.Err().
// Run returns only after every started task has returned.
func Run[T any](ctx context.Context, wp *WorkerPool, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var wg sync.WaitGroup
	for i, task := range tasks {
		if err := wp.sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(tasks); j++ {
				results[j] = Result[T]{Error: err}
			}
			break
		}

		wg.Add(1)
		go func(index int, t Task[T]) {
			defer wg.Done()
			defer wp.sem.Release(1)

			value, err := t(ctx)
			results[index] = Result[T]{Value: value, Error: err}
		}(i, task)
	}

	wg.Wait()
	return results
}

// Bounded sizes a pool for n tasks: min(limit, n), at least one worker.
func Bounded(limit, n int) *WorkerPool {
	if limit <= 0 || limit > n {
		limit = n
	}
	if limit <= 0 {
		limit = 1
	}
	return NewWorkerPool(limit)
}

// GetMaxWorkers returns the maximum number of workers
func (wp *WorkerPool) GetMaxWorkers() int {
	return wp.maxWorkers
}
