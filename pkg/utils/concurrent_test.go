package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentExecutorRunsAll(t *testing.T) {
	var counter atomic.Int64
	fns := make([]func() error, 20)
	for i := range fns {
		fns[i] = func() error {
			counter.Add(1)
			return nil
		}
	}

	errs := SemaphoreGather(context.Background(), 4, fns...)
	require.Len(t, errs, 20)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(20), counter.Load())
}

func TestConcurrentExecutorCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	errs := SemaphoreGather(context.Background(), 2,
		func() error { return nil },
		func() error { return boom },
	)
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
}

func TestConcurrentExecutorRecoversPanic(t *testing.T) {
	errs := SemaphoreGather(context.Background(), 1,
		func() error { panic("worker blew up") },
	)
	require.Len(t, errs, 1)
	var panicErr *PanicError
	require.ErrorAs(t, errs[0], &panicErr)
	assert.Equal(t, "worker blew up", panicErr.Value)
}

func TestBatch(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	batches := Batch(items, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{1, 2}, batches[0])
	assert.Equal(t, []int{5}, batches[2])

	assert.Nil(t, Batch([]int{}, 2))
}
