package blas

import (
	"math"

	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
)

// diagSqrt takes the square root of a Hermitian diagonal entry, which is
// always real and must be strictly positive for a matrix to be HPD.
func diagSqrt[T dtype.Scalar](v T, index int) (T, error) {
	re := dtype.RealPart(v)
	if re <= 0 {
		return dtype.Zero[T](), xerrors.NotHPDf("diagonal entry %d is %g, not strictly positive", index, re)
	}
	return dtype.FromReal[T](math.Sqrt(re)), nil
}

// Variant names the unblocked recurrence LocalCholesky runs; the four
// values below are the only ones any caller in this module constructs.
type Variant int

const (
	// LowerForward processes the diagonal top to bottom: at step k it
	// scales column A(k+1:n,k) by 1/sqrt(A(k,k)) and applies a rank-1
	// downdate to the trailing block. Derived by mirroring UpperForward's
	// row/column roles, since the historical source only carries the
	// upper unblocked kernel.
	LowerForward Variant = iota
	// UpperForward processes the diagonal top to bottom using a row
	// instead of a column at each step.
	UpperForward
	// UpperReverse processes the diagonal bottom to top, updating the
	// leading block instead of the trailing one at each step.
	UpperReverse
	// LowerReverse mirrors UpperReverse the way LowerForward mirrors
	// UpperForward: derived by structural symmetry, not lifted from a
	// historical source file.
	LowerReverse
)

// LocalCholesky factors A (n x n, Hermitian, only the uplo triangle
// read) into its Cholesky factor in place, using the named variant.
// Mathematically all four variants of a given uplo compute the same
// factor for an HPD input; they differ only in traversal order and
// which part of the matrix each step updates.
func LocalCholesky[T dtype.Scalar](variant Variant, A MutableTile[T]) error {
	n := A.Height()
	if A.Width() != n {
		return xerrors.Precondition("blas.LocalCholesky: A must be square, got %dx%d", n, A.Width())
	}
	switch variant {
	case LowerForward:
		return lowerForward(A, n)
	case UpperForward:
		return upperForward(A, n)
	case UpperReverse:
		return upperReverse(A, n)
	case LowerReverse:
		return lowerReverse(A, n)
	default:
		panic("blas: unknown Cholesky variant")
	}
}

// lowerForward is UVar3Unb's row-based recurrence mirrored onto columns:
// for k = 0..n-1, alpha11 := sqrt(A(k,k)); a21 := A(k+1:,k)/alpha11;
// A22 -= a21*a21^H.
func lowerForward[T dtype.Scalar](A MutableTile[T], n int) error {
	for k := 0; k < n; k++ {
		alpha11, err := diagSqrt(A.Get(k, k), k)
		if err != nil {
			return err
		}
		A.Set(k, k, alpha11)
		for i := k + 1; i < n; i++ {
			A.Set(i, k, dtype.Div(A.Get(i, k), alpha11))
		}
		for j := k + 1; j < n; j++ {
			ajk := A.Get(j, k)
			for i := j; i < n; i++ {
				A.Update(i, j, dtype.Scale(-1, dtype.Mul(A.Get(i, k), dtype.Conj(ajk))))
			}
		}
	}
	return nil
}

// upperForward is Elemental's UVar3Unb: for k = 0..n-1,
// alpha11 := sqrt(A(k,k)); a12 := A(k,k+1:)/alpha11;
// A22 -= a12^H*a12 (only the upper triangle of A22 is touched).
func upperForward[T dtype.Scalar](A MutableTile[T], n int) error {
	for k := 0; k < n; k++ {
		alpha11, err := diagSqrt(A.Get(k, k), k)
		if err != nil {
			return err
		}
		A.Set(k, k, alpha11)
		for j := k + 1; j < n; j++ {
			A.Set(k, j, dtype.Div(A.Get(k, j), alpha11))
		}
		for j := k + 1; j < n; j++ {
			akj := A.Get(k, j)
			for i := k + 1; i <= j; i++ {
				A.Update(i, j, dtype.Scale(-1, dtype.Mul(dtype.Conj(A.Get(k, i)), akj)))
			}
		}
	}
	return nil
}

// upperReverse is Elemental's ReverseUVar3Unb: for k = n-1..0,
// alpha11 := sqrt(A(k,k)); a01 := A(0:k,k)/alpha11;
// A00 -= a01*a01^H (the leading block is updated instead of the
// trailing one, since the sweep runs backward).
func upperReverse[T dtype.Scalar](A MutableTile[T], n int) error {
	for k := n - 1; k >= 0; k-- {
		alpha11, err := diagSqrt(A.Get(k, k), k)
		if err != nil {
			return err
		}
		A.Set(k, k, alpha11)
		for i := 0; i < k; i++ {
			A.Set(i, k, dtype.Div(A.Get(i, k), alpha11))
		}
		for j := 0; j < k; j++ {
			ajk := A.Get(j, k)
			for i := 0; i <= j; i++ {
				A.Update(i, j, dtype.Scale(-1, dtype.Mul(A.Get(i, k), dtype.Conj(ajk))))
			}
		}
	}
	return nil
}

// lowerReverse mirrors upperReverse's backward sweep onto the lower
// triangle: for k = n-1..0, alpha11 := sqrt(A(k,k)); a10 := A(k,0:k)/
// alpha11 (a row this time, since we are below the diagonal); A00 -=
// a10^H*a10.
func lowerReverse[T dtype.Scalar](A MutableTile[T], n int) error {
	for k := n - 1; k >= 0; k-- {
		alpha11, err := diagSqrt(A.Get(k, k), k)
		if err != nil {
			return err
		}
		A.Set(k, k, alpha11)
		for j := 0; j < k; j++ {
			A.Set(k, j, dtype.Div(A.Get(k, j), alpha11))
		}
		for j := 0; j < k; j++ {
			akj := A.Get(k, j)
			for i := j; i < k; i++ {
				A.Update(i, j, dtype.Scale(-1, dtype.Mul(dtype.Conj(A.Get(k, i)), akj)))
			}
		}
	}
	return nil
}
