// Package chol implements the blocked Cholesky factorization on top of
// dist.Matrix: four sweeps (LVar2, LVar3, UVar3, ReverseUVar3) that
// combine local BLAS-3 kernels from package blas with the distribution
// layer's redistribution and reduce-scatter primitives. Grounded on
// Elemental's cholesky::LVar2/LVar3/UVar3/ReverseUVar3 distributed
// drivers, adapted to this module's runtime-tagged dist.Matrix instead of
// per-(Col,Row) template instantiations.
package chol

import (
	"github.com/dmatrix/dense/dist"
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
)

// Variant selects which blocked sweep Factor runs. All four compute the
// same triangular factor for an HPD input, to within rounding.
type Variant int

const (
	// LVar2 is lower, left-looking: before factoring a diagonal block,
	// the panel already computed to its left is applied to it.
	LVar2 Variant = iota
	// LVar3 is lower, right-looking: after factoring a diagonal block,
	// its panel is applied to the trailing matrix.
	LVar3
	// UVar3 is upper, right-looking, forward sweep.
	UVar3
	// ReverseUVar3 is upper, right-looking, reverse sweep: blocks are
	// factored from the bottom-right corner upward, updating the
	// leading block instead of the trailing one.
	ReverseUVar3
)

func (v Variant) String() string {
	switch v {
	case LVar2:
		return "LVar2"
	case LVar3:
		return "LVar3"
	case UVar3:
		return "UVar3"
	case ReverseUVar3:
		return "ReverseUVar3"
	default:
		return "?"
	}
}

// State names a position in a Factor call's block loop. It exists only
// for tracing (see config.Config.Tracer, threaded through the matrix
// being factored); no code branches on a State value.
type State int

const (
	StateInit State = iota
	StateBeforeBlock
	StateAfterDiagonal
	StateAfterPanel
	StateAfterTrailing
	StateDone
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "S0"
	case StateBeforeBlock:
		return "S_k"
	case StateAfterDiagonal:
		return "S_kA"
	case StateAfterPanel:
		return "S_kB"
	case StateAfterTrailing:
		return "S_kC"
	case StateDone:
		return "S_done"
	case StateFatal:
		return "fatal"
	default:
		return "?"
	}
}

// Factor computes A's Cholesky factor in place using variant, in the
// triangle the variant names (Lower for LVar2/LVar3, Upper for
// UVar3/ReverseUVar3). UVar3 and ReverseUVar3 read and write only the
// upper triangle. LVar2 and LVar3 apply their Hermitian updates to whole
// diagonal or trailing blocks, so the strict upper part of those blocks
// is overwritten with updated values rather than left as input; only the
// lower triangle holds the factor. blocksize overrides A's configured
// default when positive. On failure (non-HPD input, or a shape/alignment
// precondition), A is left in an unspecified partial state: the caller
// must discard it rather than continue using it, per the module's
// fail-fast error policy.
func Factor[T dtype.Scalar](variant Variant, A *dist.Matrix[T], blocksize int) error {
	if A.Height() != A.Width() {
		return xerrors.Precondition("chol: A must be square, got %dx%d", A.Height(), A.Width())
	}
	if A.Col != dist.MC || A.Row != dist.MR {
		return xerrors.Precondition("chol: Factor requires a [MC,MR]-distributed matrix, got [%s,%s]", A.Col, A.Row)
	}
	if blocksize <= 0 {
		blocksize = A.Config().Blocksize
	}
	tr := A.Config().Tracer
	tr.Debugf("chol: %s %s starting n=%d blocksize=%d", variant, StateInit, A.Height(), blocksize)

	var err error
	switch variant {
	case LVar2:
		err = lvar2(A, blocksize, tr)
	case LVar3:
		err = lvar3(A, blocksize, tr)
	case UVar3:
		err = uvar3(A, blocksize, tr)
	case ReverseUVar3:
		err = reverseUVar3(A, blocksize, tr)
	default:
		panic("chol: unknown variant")
	}
	if err != nil {
		tr.Errorf("chol: %s %s: %v", variant, StateFatal, err)
		return err
	}
	tr.Debugf("chol: %s %s", variant, StateDone)
	return nil
}
