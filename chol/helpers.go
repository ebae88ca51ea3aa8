package chol

import (
	"github.com/dmatrix/dense/blas"
	"github.com/dmatrix/dense/dist"
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
)

// mutableLocal exposes m's local tile as a blas.MutableTile. Every
// auxiliary matrix this package builds owns a fresh local.Owned tile,
// which always satisfies this; the assertion only fails if a caller
// mistakenly passes a locked view.
func mutableLocal[T dtype.Scalar](m *dist.Matrix[T]) (blas.MutableTile[T], error) {
	mt, ok := m.LocalTile().(blas.MutableTile[T])
	if !ok {
		return nil, xerrors.Precondition("chol: matrix has no mutable local tile")
	}
	return mt, nil
}

// starStar gathers src's full contents onto every process as a fresh
// [Star,Star] matrix, replicated (Star axes carry no alignment to copy).
func starStar[T dtype.Scalar](src *dist.Matrix[T]) (*dist.Matrix[T], error) {
	full := dist.New[T](src.Grid(), dist.Star, dist.Star, src.Height(), src.Width(), src.Config())
	if err := dist.Assign(full, src); err != nil {
		return nil, err
	}
	return full, nil
}

// factorDiagonalBlock pulls a11 to a replicated [*,*] tile, runs the
// local unblocked Cholesky named by variant, and pushes the factored
// block back into a11. This realizes the "pull to [*,*], factor locally,
// push back" step every blocked driver in this package uses on its
// diagonal block, so the trailing (or leading) matrix never has to move
// for this step.
func factorDiagonalBlock[T dtype.Scalar](a11 *dist.Matrix[T], variant blas.Variant) (*dist.Matrix[T], error) {
	full, err := starStar(a11)
	if err != nil {
		return nil, err
	}
	mt, err := mutableLocal(full)
	if err != nil {
		return nil, err
	}
	if err := blas.LocalCholesky[T](variant, mt); err != nil {
		return nil, err
	}
	if err := dist.Assign(a11, full); err != nil {
		return nil, err
	}
	return full, nil
}

// adjointReplicate builds src's conjugate transpose at distribution
// (col,row), aligned with align along whichever axis the two share. This
// is the "form the adjoint once, redistribute it, then every trailing
// update against it is a local matmul" step behind every panel update in
// this package: src's Row axis becomes the result's Col axis (or vice
// versa), so passing dist.MR/dist.Star as (col,row) turns a [MC,MR]
// column panel into the [MR,*] operand its own trailing update needs.
func adjointReplicate[T dtype.Scalar](col, row dist.Tag, align, src *dist.Matrix[T]) (*dist.Matrix[T], error) {
	dst := dist.New[T](src.Grid(), col, row, 0, 0, src.Config())
	if err := dst.AlignWith(align); err != nil {
		return nil, err
	}
	if err := dist.Adjoint(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// replicate builds a copy of src at distribution (col,row), aligned with
// align, via a plain (non-transposing) redistribution.
func replicate[T dtype.Scalar](col, row dist.Tag, align, src *dist.Matrix[T]) (*dist.Matrix[T], error) {
	dst := dist.New[T](src.Grid(), col, row, 0, 0, src.Config())
	if err := dst.AlignWith(align); err != nil {
		return nil, err
	}
	if err := dist.Assign(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// herkLikeUpdate computes X := op(left)*op(right) locally into a fresh
// [MC,*] matrix shaped like target and aligned with target's column
// axis, then folds -X into target via SumScatterUpdate. left and right
// must already be in distributions whose contraction axis lines up
// without further communication (left in target's native [MC,MR], right
// as an adjoint-replicated [MR,*] built by adjointReplicate). This is the
// Hermitian-rank-update step the column-panel-driven variants (LVar2,
// LVar3) reduce their trailing or leading update to; it uses
// a general local Gemm rather than a symmetry-exploiting Herk, since the
// two operands here are independently redistributed copies rather than a
// single tile Herk's op(A) contract expects.
func herkLikeUpdate[T dtype.Scalar](target, left, right *dist.Matrix[T], opLeft, opRight blas.Op) error {
	x := dist.New[T](target.Grid(), dist.MC, dist.Star, target.Height(), target.Width(), target.Config())
	if err := x.AlignWith(target); err != nil {
		return err
	}
	mt, err := mutableLocal(x)
	if err != nil {
		return err
	}
	if err := blas.Gemm[T](1, left.LocalTile(), opLeft, right.LocalTile(), opRight, 0, mt); err != nil {
		return err
	}
	return target.SumScatterUpdate(-1, x.LocalTile())
}

// trrkUpdate applies -op(left)*op(right) into target's uplo triangle in
// place, with no further communication: left and right must already
// resolve, per-process, to exactly target's local shape (the [*,MC] /
// [*,MR] row-panel redistribution UVar3 uses), so the local Trrk call is
// target's entire contribution.
func trrkUpdate[T dtype.Scalar](uplo blas.Uplo, target, left, right *dist.Matrix[T], opLeft, opRight blas.Op) error {
	mt, err := mutableLocal(target)
	if err != nil {
		return err
	}
	return blas.Trrk[T](uplo, -1, left.LocalTile(), opLeft, right.LocalTile(), opRight, 1, mt)
}
