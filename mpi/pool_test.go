package mpi

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	var count int64
	pool := NewWorkerPool(4)
	for i := 0; i < 16; i++ {
		pool.Run(func() error {
			atomic.AddInt64(&count, 1)
			return nil
		})
	}
	require.NoError(t, pool.Wait())
	require.EqualValues(t, 16, count)
}

func TestWorkerPoolCollectsFirstError(t *testing.T) {
	pool := NewWorkerPool(2)
	for i := 0; i < 4; i++ {
		i := i
		pool.Run(func() error {
			if i == 2 {
				return fmt.Errorf("boom %d", i)
			}
			return nil
		})
	}
	require.Error(t, pool.Wait())
}
