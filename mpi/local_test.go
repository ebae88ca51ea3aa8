package mpi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func runOnAll(comms []*LocalComm, f func(c *LocalComm) error) []error {
	var wg sync.WaitGroup
	errs := make([]error, len(comms))
	for i, c := range comms {
		wg.Add(1)
		go func(i int, c *LocalComm) {
			defer wg.Done()
			errs[i] = f(c)
		}(i, c)
	}
	wg.Wait()
	return errs
}

func TestBroadcastFloat64(t *testing.T) {
	comms := NewUniverse(4)
	results := make([][]float64, 4)
	var mu sync.Mutex
	errs := runOnAll(comms, func(c *LocalComm) error {
		buf := []float64{0, 0, 0}
		if c.Rank() == 2 {
			buf = []float64{1, 2, 3}
		}
		if err := Broadcast(c, buf, 2); err != nil {
			return err
		}
		mu.Lock()
		results[c.Rank()] = buf
		mu.Unlock()
		return nil
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	for i := 0; i < 4; i++ {
		require.Equal(t, []float64{1, 2, 3}, results[i])
	}
}

func TestAllReduceSum(t *testing.T) {
	comms := NewUniverse(3)
	results := make([][]float64, 3)
	var mu sync.Mutex
	errs := runOnAll(comms, func(c *LocalComm) error {
		sbuf := []float64{float64(c.Rank() + 1), 1}
		rbuf := make([]float64, 2)
		if err := AllReduceSum(c, sbuf, rbuf); err != nil {
			return err
		}
		mu.Lock()
		results[c.Rank()] = rbuf
		mu.Unlock()
		return nil
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	for i := 0; i < 3; i++ {
		require.Equal(t, []float64{6, 3}, results[i])
	}
}

func TestAllGather(t *testing.T) {
	comms := NewUniverse(3)
	results := make([][]int32, 3)
	var mu sync.Mutex
	// AllGather is generic over dtype.Scalar; reuse float64 view since
	// int32 is not a supported Scalar. Encode as float64 for the test.
	errs := runOnAll(comms, func(c *LocalComm) error {
		sbuf := []float64{float64(c.Rank())}
		rbuf := make([]float64, 3)
		if err := AllGather(c, sbuf, rbuf); err != nil {
			return err
		}
		mu.Lock()
		got := make([]int32, 3)
		for i, v := range rbuf {
			got[i] = int32(v)
		}
		results[c.Rank()] = got
		mu.Unlock()
		return nil
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	for i := 0; i < 3; i++ {
		require.Equal(t, []int32{0, 1, 2}, results[i])
	}
}

func TestReduceScatterSum(t *testing.T) {
	comms := NewUniverse(2)
	results := make([][]float64, 2)
	var mu sync.Mutex
	errs := runOnAll(comms, func(c *LocalComm) error {
		// Each rank contributes [rank, rank] as its two chunks.
		sbuf := []float64{float64(c.Rank()), float64(c.Rank())}
		rbuf := make([]float64, 1)
		if err := ReduceScatterSum(c, sbuf, rbuf); err != nil {
			return err
		}
		mu.Lock()
		results[c.Rank()] = rbuf
		mu.Unlock()
		return nil
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	require.Equal(t, []float64{1}, results[0])
	require.Equal(t, []float64{1}, results[1])
}

func TestReduceScatterSumVRagged(t *testing.T) {
	comms := NewUniverse(3)
	counts := []int{1, 2, 1}
	results := make([][]float64, 3)
	var mu sync.Mutex
	errs := runOnAll(comms, func(c *LocalComm) error {
		// Every rank contributes the same 4-wide vector; rank r should
		// recover 3*chunk[r] (summed over the 3 identical contributions).
		sbuf := []float64{10, 20, 21, 30}
		rbuf := make([]float64, counts[c.Rank()])
		if err := ReduceScatterSumV(c, sbuf, rbuf, counts); err != nil {
			return err
		}
		mu.Lock()
		results[c.Rank()] = rbuf
		mu.Unlock()
		return nil
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	require.Equal(t, []float64{30}, results[0])
	require.Equal(t, []float64{60, 63}, results[1])
	require.Equal(t, []float64{90}, results[2])
}

func TestSendRecvSwap(t *testing.T) {
	comms := NewUniverse(2)
	results := make([][]float64, 2)
	var mu sync.Mutex
	errs := runOnAll(comms, func(c *LocalComm) error {
		other := 1 - c.Rank()
		sbuf := []float64{float64(c.Rank())}
		rbuf := make([]float64, 1)
		if err := SendRecv(c, sbuf, other, AnyTag, rbuf, other, AnyTag); err != nil {
			return err
		}
		mu.Lock()
		results[c.Rank()] = rbuf
		mu.Unlock()
		return nil
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	require.Equal(t, []float64{1}, results[0])
	require.Equal(t, []float64{0}, results[1])
}
