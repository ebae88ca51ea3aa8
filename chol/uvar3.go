package chol

import (
	"github.com/dmatrix/dense/blas"
	"github.com/dmatrix/dense/dist"
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/trace"
)

// uvar3 is the right-looking upper blocked sweep: after a diagonal block
// is factored, its row panel A12 is solved and applied to the trailing
// matrix. Grounded on Elemental's cholesky::UVar3 distributed driver: the
// panel is redistributed to [*,VR] for the triangular solve, then to
// [*,MC] and [*,MR] so the trailing update is a single local Trrk call
// per process with no further communication.
func uvar3[T dtype.Scalar](A *dist.Matrix[T], blocksize int, tr *trace.Tracer) error {
	n := A.Height()
	for k := 0; k < n; k += blocksize {
		nb := min(blocksize, n-k)
		trailing := n - (k + nb)
		tr.Debugf("chol.UVar3: %s k=%d nb=%d", StateBeforeBlock, k, nb)

		A11, err := dist.View(A, k, k, nb, nb)
		if err != nil {
			return err
		}
		a11Full, err := factorDiagonalBlock(A11, blas.UpperForward)
		if err != nil {
			return err
		}
		tr.Debugf("chol.UVar3: %s k=%d", StateAfterDiagonal, k)

		if trailing == 0 {
			continue
		}
		A12, err := dist.View(A, k, k+nb, nb, trailing)
		if err != nil {
			return err
		}
		A22, err := dist.View(A, k+nb, k+nb, trailing, trailing)
		if err != nil {
			return err
		}

		a12vr, err := replicate(dist.Star, dist.VR, A22, A12)
		if err != nil {
			return err
		}
		mt, err := mutableLocal(a12vr)
		if err != nil {
			return err
		}
		if err := blas.Trsm[T](blas.Left, blas.Upper, blas.ConjTrans, blas.NonUnit, 1, a11Full.LocalTile(), mt); err != nil {
			return err
		}

		a12mc, err := replicate(dist.Star, dist.MC, A22, a12vr)
		if err != nil {
			return err
		}
		a12mr, err := replicate(dist.Star, dist.MR, A22, a12vr)
		if err != nil {
			return err
		}
		if err := dist.Assign(A12, a12mr); err != nil {
			return err
		}
		tr.Debugf("chol.UVar3: %s k=%d", StateAfterPanel, k)

		if err := trrkUpdate(blas.Upper, A22, a12mc, a12mr, blas.ConjTrans, blas.NoTrans); err != nil {
			return err
		}
		tr.Debugf("chol.UVar3: %s k=%d", StateAfterTrailing, k)
	}
	return nil
}

// reverseUVar3 is the upper reverse sweep: blocks are factored from the
// bottom-right corner upward, and each panel updates the leading block
// A00 instead of a trailing one. Grounded on Elemental's
// cholesky::ReverseUVar3: the leading update redistributes the panel to
// [MC,*] and [MR,*] aligned with A00 and folds it in with a single local
// Trrk call, the same triangle-restricted idiom uvar3's forward sweep
// uses for its trailing update, so the write never touches A00's
// strict-lower triangle.
func reverseUVar3[T dtype.Scalar](A *dist.Matrix[T], blocksize int, tr *trace.Tracer) error {
	n := A.Height()
	for k := 0; k < n; k += blocksize {
		nb := min(blocksize, n-k)
		leading := n - k - nb
		tr.Debugf("chol.ReverseUVar3: %s k=%d nb=%d", StateBeforeBlock, k, nb)

		A11, err := dist.View(A, leading, leading, nb, nb)
		if err != nil {
			return err
		}
		a11Full, err := factorDiagonalBlock(A11, blas.UpperReverse)
		if err != nil {
			return err
		}
		tr.Debugf("chol.ReverseUVar3: %s k=%d", StateAfterDiagonal, k)

		if leading == 0 {
			continue
		}
		A00, err := dist.View(A, 0, 0, leading, leading)
		if err != nil {
			return err
		}
		A01, err := dist.View(A, 0, leading, leading, nb)
		if err != nil {
			return err
		}

		a01vc, err := replicate(dist.VC, dist.Star, A00, A01)
		if err != nil {
			return err
		}
		mt, err := mutableLocal(a01vc)
		if err != nil {
			return err
		}
		if err := blas.Trsm[T](blas.Right, blas.Upper, blas.NoTrans, blas.NonUnit, 1, a11Full.LocalTile(), mt); err != nil {
			return err
		}
		if err := dist.Assign(A01, a01vc); err != nil {
			return err
		}
		tr.Debugf("chol.ReverseUVar3: %s k=%d", StateAfterPanel, k)

		a01mc, err := replicate(dist.MC, dist.Star, A00, A01)
		if err != nil {
			return err
		}
		a01mr, err := replicate(dist.MR, dist.Star, A00, A01)
		if err != nil {
			return err
		}
		if err := trrkUpdate(blas.Upper, A00, a01mc, a01mr, blas.NoTrans, blas.ConjTrans); err != nil {
			return err
		}
		tr.Debugf("chol.ReverseUVar3: %s k=%d", StateAfterTrailing, k)
	}
	return nil
}
