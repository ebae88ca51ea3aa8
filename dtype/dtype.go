// Package dtype defines the scalar type system shared by the local and
// distributed matrix layers: the set of supported element types and the
// associated real base type used for norms and diagonal checks.
package dtype

import (
	"math"
	"math/cmplx"

	"golang.org/x/exp/constraints"
)

// Real is the set of supported real element types.
type Real interface {
	constraints.Float
}

// Scalar is the set of supported matrix element types: two reals and two
// complex types, each with an associated real base type used for norms
// and diagonals (see RealPart / FromReal).
type Scalar interface {
	constraints.Float | constraints.Complex
}

// RealPart projects a scalar onto its real base type, widened to float64.
// For real T this is just the value; for complex T it is the real
// component. It is the associated-real-type projection called for by the
// scalar abstraction: rather than a type-level macro, it is a value-level
// function dispatching on the concrete instantiation of T.
func RealPart[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case complex64:
		return float64(real(x))
	case complex128:
		return real(x)
	default:
		panic("dtype: unsupported scalar type")
	}
}

// FromReal builds a scalar of type T from a float64 real value, the
// inverse of RealPart for the diagonal it was extracted from.
func FromReal[T Scalar](r float64) T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(float32(r)).(T)
	case float64:
		return any(r).(T)
	case complex64:
		return any(complex64(complex(r, 0))).(T)
	case complex128:
		return any(complex(r, 0)).(T)
	default:
		panic("dtype: unsupported scalar type")
	}
}

// IsComplex reports whether T is one of the two complex element types.
func IsComplex[T Scalar]() bool {
	var zero T
	switch any(zero).(type) {
	case complex64, complex128:
		return true
	default:
		return false
	}
}

// Conj returns the complex conjugate of v; for real T it returns v
// unchanged.
func Conj[T Scalar](v T) T {
	switch x := any(v).(type) {
	case complex64:
		return any(complex64(cmplx.Conj(complex128(x)))).(T)
	case complex128:
		return any(cmplx.Conj(x)).(T)
	default:
		return v
	}
}

// Abs returns |v| widened to float64.
func Abs[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return math.Abs(float64(x))
	case float64:
		return math.Abs(x)
	case complex64:
		return cmplx.Abs(complex128(x))
	case complex128:
		return cmplx.Abs(x)
	default:
		panic("dtype: unsupported scalar type")
	}
}

// Zero returns the additive identity of T.
func Zero[T Scalar]() T {
	var zero T
	return zero
}

// One returns the multiplicative identity of T.
func One[T Scalar]() T {
	return FromReal[T](1)
}

// Add, Sub, Mul, and Scale are the four arithmetic primitives the local
// BLAS kernels and the unblocked Cholesky step build on. They exist so
// that generic code never needs a type switch of its own to combine two
// scalars of type T.
func Add[T Scalar](a, b T) T { return any(addImpl(any(a), any(b))).(T) }
func Sub[T Scalar](a, b T) T { return any(subImpl(any(a), any(b))).(T) }
func Mul[T Scalar](a, b T) T { return any(mulImpl(any(a), any(b))).(T) }

// Div computes a/b. Go's native / operator already handles complex
// division, so, like Add/Sub/Mul, this needs no separate real/complex
// path beyond the type switch itself.
func Div[T Scalar](a, b T) T {
	switch x := any(a).(type) {
	case float32:
		return any(x / any(b).(float32)).(T)
	case float64:
		return any(x / any(b).(float64)).(T)
	case complex64:
		return any(x / any(b).(complex64)).(T)
	case complex128:
		return any(x / any(b).(complex128)).(T)
	default:
		panic("dtype: unsupported scalar type")
	}
}

// ComplexOf builds a scalar of type T from real and imaginary float64
// parts. For real T the imaginary part is dropped.
func ComplexOf[T Scalar](re, im float64) T {
	switch any(*new(T)).(type) {
	case float32:
		return any(float32(re)).(T)
	case float64:
		return any(re).(T)
	case complex64:
		return any(complex64(complex(re, im))).(T)
	case complex128:
		return any(complex(re, im)).(T)
	default:
		panic("dtype: unsupported scalar type")
	}
}

// Scale multiplies a scalar of type T by a real coefficient.
func Scale[T Scalar](alpha float64, v T) T {
	switch x := any(v).(type) {
	case float32:
		return any(float32(alpha) * x).(T)
	case float64:
		return any(alpha * x).(T)
	case complex64:
		return any(complex64(complex(alpha, 0)) * x).(T)
	case complex128:
		return any(complex(alpha, 0) * x).(T)
	default:
		panic("dtype: unsupported scalar type")
	}
}

func addImpl(a, b any) any {
	switch x := a.(type) {
	case float32:
		return x + b.(float32)
	case float64:
		return x + b.(float64)
	case complex64:
		return x + b.(complex64)
	case complex128:
		return x + b.(complex128)
	default:
		panic("dtype: unsupported scalar type")
	}
}

func subImpl(a, b any) any {
	switch x := a.(type) {
	case float32:
		return x - b.(float32)
	case float64:
		return x - b.(float64)
	case complex64:
		return x - b.(complex64)
	case complex128:
		return x - b.(complex128)
	default:
		panic("dtype: unsupported scalar type")
	}
}

func mulImpl(a, b any) any {
	switch x := a.(type) {
	case float32:
		return x * b.(float32)
	case float64:
		return x * b.(float64)
	case complex64:
		return x * b.(complex64)
	case complex128:
		return x * b.(complex128)
	default:
		panic("dtype: unsupported scalar type")
	}
}

// Tolerance returns a default numeric tolerance for round-trip and
// correctness comparisons of matrices with n rows/columns, scaled by the
// working precision of T, following the O(n*eps*norm) bound used by the
// test suite.
func Tolerance[T Scalar](n int) float64 {
	eps := math.Nextafter(1, 2) - 1
	if _, ok := any(*new(T)).(complex64); ok {
		eps = float64(math.Nextafter(float64(float32(1)), 2) - 1)
	}
	if _, ok := any(*new(T)).(float32); ok {
		eps = float64(math.Nextafter(float64(float32(1)), 2) - 1)
	}
	return float64(n) * eps * 10
}
