// Package blas implements the local, single-process BLAS-3-style kernels
// the distributed and unblocked Cholesky drivers reduce to: Gemm, Herk,
// Trsm, Trrk, and the four unblocked Cholesky recurrences themselves.
// Every kernel walks local.Tile[T] values directly rather than calling
// out to a real BLAS library, since none of the pack's dependencies ship
// one; grounded in the same generic-over-Scalar style dtype.go and
// local.Owned use throughout.
package blas

import (
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/local"
)

// Op selects whether a matrix argument participates untransposed,
// transposed, or conjugate-transposed.
type Op int

const (
	NoTrans Op = iota
	Trans
	ConjTrans
)

// Uplo selects which triangle of a matrix is significant.
type Uplo int

const (
	Lower Uplo = iota
	Upper
)

func (u Uplo) flip() Uplo {
	if u == Lower {
		return Upper
	}
	return Lower
}

// Diag selects whether a triangular matrix's diagonal is implicitly one
// or must be read from storage.
type Diag int

const (
	NonUnit Diag = iota
	Unit
)

// Side selects whether a triangular matrix multiplies from the left or
// right in Trsm.
type Side int

const (
	Left Side = iota
	Right
)

// MutableTile is the subset of local.Owned/local.View every kernel here
// writes through: a Tile that can also be Set and Update in place.
type MutableTile[T dtype.Scalar] interface {
	local.Tile[T]
	Set(i, j int, v T)
	Update(i, j int, v T)
}

func opGet[T dtype.Scalar](A local.Tile[T], op Op, i, j int) T {
	switch op {
	case NoTrans:
		return A.Get(i, j)
	case Trans:
		return A.Get(j, i)
	case ConjTrans:
		return dtype.Conj(A.Get(j, i))
	default:
		panic("blas: unknown op")
	}
}

func opRows[T dtype.Scalar](A local.Tile[T], op Op) int {
	if op == NoTrans {
		return A.Height()
	}
	return A.Width()
}

func opCols[T dtype.Scalar](A local.Tile[T], op Op) int {
	if op == NoTrans {
		return A.Width()
	}
	return A.Height()
}

// Gemm computes C := alpha*op(A)*op(B) + beta*C.
func Gemm[T dtype.Scalar](alpha float64, A local.Tile[T], opA Op, B local.Tile[T], opB Op, beta float64, C MutableTile[T]) error {
	m, k := opRows(A, opA), opCols(A, opA)
	k2, n := opRows(B, opB), opCols(B, opB)
	if k != k2 {
		return xerrors.Precondition("blas.Gemm: inner dimension mismatch %d != %d", k, k2)
	}
	if C.Height() != m || C.Width() != n {
		return xerrors.Precondition("blas.Gemm: C is %dx%d, want %dx%d", C.Height(), C.Width(), m, n)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			sum := dtype.Zero[T]()
			for p := 0; p < k; p++ {
				sum = dtype.Add(sum, dtype.Mul(opGet(A, opA, i, p), opGet(B, opB, p, j)))
			}
			C.Set(i, j, dtype.Add(dtype.Scale(alpha, sum), dtype.Scale(beta, C.Get(i, j))))
		}
	}
	return nil
}

// inTriangle reports whether (i,j) lies in the triangle uplo names.
func inTriangle(uplo Uplo, i, j int) bool {
	if uplo == Lower {
		return i >= j
	}
	return i <= j
}

// Herk computes the Hermitian rank-k update C := alpha*op(A)*op(A)^H +
// beta*C over the triangle uplo names, leaving the opposite triangle of
// C untouched.
func Herk[T dtype.Scalar](uplo Uplo, alpha float64, A local.Tile[T], opA Op, beta float64, C MutableTile[T]) error {
	n, k := opRows(A, opA), opCols(A, opA)
	if C.Height() != n || C.Width() != n {
		return xerrors.Precondition("blas.Herk: C is %dx%d, want %dx%d", C.Height(), C.Width(), n, n)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			if !inTriangle(uplo, i, j) {
				continue
			}
			sum := dtype.Zero[T]()
			for p := 0; p < k; p++ {
				sum = dtype.Add(sum, dtype.Mul(opGet(A, opA, i, p), dtype.Conj(opGet(A, opA, j, p))))
			}
			C.Set(i, j, dtype.Add(dtype.Scale(alpha, sum), dtype.Scale(beta, C.Get(i, j))))
		}
	}
	return nil
}

// Trrk computes the triangular rank-k update C := alpha*op(A)*op(B) +
// beta*C over the triangle uplo names, for two independent factors
// rather than Herk's single self-outer-product.
func Trrk[T dtype.Scalar](uplo Uplo, alpha float64, A local.Tile[T], opA Op, B local.Tile[T], opB Op, beta float64, C MutableTile[T]) error {
	n := C.Height()
	if C.Width() != n {
		return xerrors.Precondition("blas.Trrk: C must be square, got %dx%d", C.Height(), C.Width())
	}
	k := opCols(A, opA)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			if !inTriangle(uplo, i, j) {
				continue
			}
			sum := dtype.Zero[T]()
			for p := 0; p < k; p++ {
				sum = dtype.Add(sum, dtype.Mul(opGet(A, opA, i, p), opGet(B, opB, p, j)))
			}
			C.Set(i, j, dtype.Add(dtype.Scale(alpha, sum), dtype.Scale(beta, C.Get(i, j))))
		}
	}
	return nil
}

// Trsm solves a triangular system in place, overwriting B with the
// solution X of op(A)*X = alpha*B (Left) or X*op(A) = alpha*B (Right).
// A transposed op flips which triangle the substitution reads from
// first, so the recurrence below always dispatches on an "effective
// uplo" rather than special-casing every (side,uplo,op) combination
// directly.
func Trsm[T dtype.Scalar](side Side, uplo Uplo, opA Op, diag Diag, alpha float64, A local.Tile[T], B MutableTile[T]) error {
	effUplo := uplo
	if opA != NoTrans {
		effUplo = uplo.flip()
	}
	switch side {
	case Left:
		return trsmLeft(effUplo, opA, diag, alpha, A, B)
	case Right:
		return trsmRight(effUplo, opA, diag, alpha, A, B)
	default:
		panic("blas: unknown side")
	}
}

func trsmLeft[T dtype.Scalar](effUplo Uplo, opA Op, diag Diag, alpha float64, A local.Tile[T], B MutableTile[T]) error {
	n := B.Height()
	if A.Height() != n || A.Width() != n {
		return xerrors.Precondition("blas.Trsm: A is %dx%d, want %dx%d", A.Height(), A.Width(), n, n)
	}
	cols := B.Width()
	for c := 0; c < cols; c++ {
		if effUplo == Lower {
			for i := 0; i < n; i++ {
				sum := dtype.Scale(alpha, B.Get(i, c))
				for p := 0; p < i; p++ {
					sum = dtype.Sub(sum, dtype.Mul(opGet(A, opA, i, p), B.Get(p, c)))
				}
				if diag == NonUnit {
					sum = dtype.Div(sum, opGet(A, opA, i, i))
				}
				B.Set(i, c, sum)
			}
		} else {
			for i := n - 1; i >= 0; i-- {
				sum := dtype.Scale(alpha, B.Get(i, c))
				for p := i + 1; p < n; p++ {
					sum = dtype.Sub(sum, dtype.Mul(opGet(A, opA, i, p), B.Get(p, c)))
				}
				if diag == NonUnit {
					sum = dtype.Div(sum, opGet(A, opA, i, i))
				}
				B.Set(i, c, sum)
			}
		}
	}
	return nil
}

func trsmRight[T dtype.Scalar](effUplo Uplo, opA Op, diag Diag, alpha float64, A local.Tile[T], B MutableTile[T]) error {
	n := B.Width()
	if A.Height() != n || A.Width() != n {
		return xerrors.Precondition("blas.Trsm: A is %dx%d, want %dx%d", A.Height(), A.Width(), n, n)
	}
	rows := B.Height()
	for r := 0; r < rows; r++ {
		if effUplo == Upper {
			for j := 0; j < n; j++ {
				sum := dtype.Scale(alpha, B.Get(r, j))
				for p := 0; p < j; p++ {
					sum = dtype.Sub(sum, dtype.Mul(B.Get(r, p), opGet(A, opA, p, j)))
				}
				if diag == NonUnit {
					sum = dtype.Div(sum, opGet(A, opA, j, j))
				}
				B.Set(r, j, sum)
			}
		} else {
			for j := n - 1; j >= 0; j-- {
				sum := dtype.Scale(alpha, B.Get(r, j))
				for p := j + 1; p < n; p++ {
					sum = dtype.Sub(sum, dtype.Mul(B.Get(r, p), opGet(A, opA, p, j)))
				}
				if diag == NonUnit {
					sum = dtype.Div(sum, opGet(A, opA, j, j))
				}
				B.Set(r, j, sum)
			}
		}
	}
	return nil
}
