package utils

import (
	"context"
	"os"
	"strconv"
	"sync"
)

// DefaultConcurrencyLimit bounds concurrent tasks when no limit is
// configured.
const DefaultConcurrencyLimit = 8

// ConcurrencyLimit returns the task concurrency limit from the
// CONCURRENCY_LIMIT environment variable, or the default.
func ConcurrencyLimit() int {
	val := os.Getenv("CONCURRENCY_LIMIT")
	if val == "" {
		return DefaultConcurrencyLimit
	}
	limit, err := strconv.Atoi(val)
	if err != nil || limit <= 0 {
		return DefaultConcurrencyLimit
	}
	return limit
}

// ConcurrentExecutor runs functions concurrently under a semaphore.
type ConcurrentExecutor struct {
	semaphore chan struct{}
}

// NewConcurrentExecutor creates an executor with the given max concurrency.
func NewConcurrentExecutor(maxConcurrency int) *ConcurrentExecutor {
	if maxConcurrency <= 0 {
		maxConcurrency = ConcurrencyLimit()
	}
	return &ConcurrentExecutor{semaphore: make(chan struct{}, maxConcurrency)}
}

// Execute runs the functions concurrently and returns one error slot per
// function, in order. Panics in goroutines are recovered and converted to
// PanicError.
func (e *ConcurrentExecutor) Execute(ctx context.Context, functions ...func() error) []error {
	if len(functions) == 0 {
		return nil
	}

	results := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() error) {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) {
				results[index] = err
			})

			select {
			case e.semaphore <- struct{}{}:
				defer func() { <-e.semaphore }()
			case <-ctx.Done():
				results[index] = ctx.Err()
				return
			}

			results[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results
}

// SemaphoreGather executes functions concurrently with bounded
// concurrency and waits for all of them. The stage barrier in the
// pipeline is exactly this wait.
func SemaphoreGather(ctx context.Context, maxConcurrency int, functions ...func() error) []error {
	return NewConcurrentExecutor(maxConcurrency).Execute(ctx, functions...)
}

// Batch splits items into slices of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 100
	}

	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
