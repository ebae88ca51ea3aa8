package dtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRealPartRoundTrip(t *testing.T) {
	require.Equal(t, 3.5, RealPart(FromReal[float64](3.5)))
	require.Equal(t, 3.5, RealPart(FromReal[complex128](3.5)))
	require.InDelta(t, 3.5, RealPart(FromReal[float32](3.5)), 1e-6)
	require.InDelta(t, 3.5, RealPart(FromReal[complex64](3.5)), 1e-6)
}

func TestConjRealNoop(t *testing.T) {
	require.Equal(t, 2.0, Conj(2.0))
}

func TestConjComplex(t *testing.T) {
	c := complex(1.0, 2.0)
	require.Equal(t, complex(1.0, -2.0), Conj(c))
}

func TestAbs(t *testing.T) {
	require.Equal(t, 5.0, Abs(complex(3.0, 4.0)))
	require.Equal(t, 5.0, Abs(-5.0))
}

func TestArithmetic(t *testing.T) {
	require.Equal(t, 5.0, Add(2.0, 3.0))
	require.Equal(t, 6.0, Mul(2.0, 3.0))
	require.Equal(t, complex(6.0, 0.0), Scale[complex128](3, complex(2, 0)))
}

func TestHighPrecisionNorm(t *testing.T) {
	require.InDelta(t, 5.0, HighPrecisionNorm([]float64{3, 4}), 1e-9)
}

func TestDiv(t *testing.T) {
	require.Equal(t, 2.0, Div(6.0, 3.0))
	require.Equal(t, complex(2.0, 0.0), Div(complex(6.0, 0.0), complex(3.0, 0.0)))
}

func TestComplexOf(t *testing.T) {
	require.Equal(t, complex(1.0, 2.0), ComplexOf[complex128](1, 2))
	require.Equal(t, 1.0, ComplexOf[float64](1, 2))
}
