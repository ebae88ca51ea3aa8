package blas

import (
	"math"
	"testing"

	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/local"
	"github.com/stretchr/testify/require"
)

func TestLowerForwardKnownFactor(t *testing.T) {
	A := mat([][]float64{{4, 2}, {2, 3}})
	require.NoError(t, LocalCholesky[float64](LowerForward, A))
	require.InDelta(t, 2.0, A.Get(0, 0), 1e-9)
	require.InDelta(t, 1.0, A.Get(1, 0), 1e-9)
	require.InDelta(t, math.Sqrt2, A.Get(1, 1), 1e-9)
}

func TestUpperForwardKnownFactor(t *testing.T) {
	A := mat([][]float64{{4, 2}, {2, 3}})
	require.NoError(t, LocalCholesky[float64](UpperForward, A))
	require.InDelta(t, 2.0, A.Get(0, 0), 1e-9)
	require.InDelta(t, 1.0, A.Get(0, 1), 1e-9)
	require.InDelta(t, math.Sqrt2, A.Get(1, 1), 1e-9)
}

func TestVariantsAgreeOnLowerFactor(t *testing.T) {
	build := func() *local.Owned[float64] { return mat([][]float64{{6, 2, 1}, {2, 5, 2}, {1, 2, 4}}) }
	forward := build()
	reverse := build()
	require.NoError(t, LocalCholesky[float64](LowerForward, forward))
	require.NoError(t, LocalCholesky[float64](LowerReverse, reverse))
	for i := 0; i < 3; i++ {
		for j := 0; j <= i; j++ {
			require.InDelta(t, forward.Get(i, j), reverse.Get(i, j), 1e-9)
		}
	}
}

func TestVariantsAgreeOnUpperFactor(t *testing.T) {
	build := func() *local.Owned[float64] { return mat([][]float64{{6, 2, 1}, {2, 5, 2}, {1, 2, 4}}) }
	forward := build()
	reverse := build()
	require.NoError(t, LocalCholesky[float64](UpperForward, forward))
	require.NoError(t, LocalCholesky[float64](UpperReverse, reverse))
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			require.InDelta(t, forward.Get(i, j), reverse.Get(i, j), 1e-9)
		}
	}
}

func TestLowerAndUpperFactorsAreTransposes(t *testing.T) {
	lower := mat([][]float64{{6, 2, 1}, {2, 5, 2}, {1, 2, 4}})
	upper := mat([][]float64{{6, 2, 1}, {2, 5, 2}, {1, 2, 4}})
	require.NoError(t, LocalCholesky[float64](LowerForward, lower))
	require.NoError(t, LocalCholesky[float64](UpperForward, upper))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i >= j {
				require.InDelta(t, lower.Get(i, j), upper.Get(j, i), 1e-9)
			}
		}
	}
}

func TestLocalCholeskyRejectsNonHPD(t *testing.T) {
	A := mat([][]float64{{-1}})
	err := LocalCholesky[float64](LowerForward, A)
	require.Error(t, err)
	kind, ok := xerrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, xerrors.NotHPD, kind)
}
