package chol

import (
	"github.com/dmatrix/dense/blas"
	"github.com/dmatrix/dense/dist"
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/trace"
)

// lvar3 is the right-looking lower blocked sweep: after a diagonal block
// is factored, its panel (A21) is solved and then applied to the whole
// trailing matrix in one Hermitian rank-nb update. Grounded on
// Elemental's cholesky::LVar3 (serial recurrence in spec §4.7) combined
// with the same [VC,*]/[MR,*] staging cholesky::LVar2's distributed
// driver uses for its panel solve and adjoint formation.
func lvar3[T dtype.Scalar](A *dist.Matrix[T], blocksize int, tr *trace.Tracer) error {
	n := A.Height()
	for k := 0; k < n; k += blocksize {
		nb := min(blocksize, n-k)
		trailing := n - (k + nb)
		tr.Debugf("chol.LVar3: %s k=%d nb=%d", StateBeforeBlock, k, nb)

		A11, err := dist.View(A, k, k, nb, nb)
		if err != nil {
			return err
		}
		a11Full, err := factorDiagonalBlock(A11, blas.LowerForward)
		if err != nil {
			return err
		}
		tr.Debugf("chol.LVar3: %s k=%d", StateAfterDiagonal, k)

		if trailing == 0 {
			continue
		}
		A21, err := dist.View(A, k+nb, k, trailing, nb)
		if err != nil {
			return err
		}
		A22, err := dist.View(A, k+nb, k+nb, trailing, trailing)
		if err != nil {
			return err
		}

		a21vc, err := replicate(dist.VC, dist.Star, A21, A21)
		if err != nil {
			return err
		}
		mt, err := mutableLocal(a21vc)
		if err != nil {
			return err
		}
		if err := blas.Trsm[T](blas.Right, blas.Lower, blas.ConjTrans, blas.NonUnit, 1, a11Full.LocalTile(), mt); err != nil {
			return err
		}
		if err := dist.Assign(A21, a21vc); err != nil {
			return err
		}
		tr.Debugf("chol.LVar3: %s k=%d", StateAfterPanel, k)

		a21Adj, err := adjointReplicate(dist.MR, dist.Star, A21, A21)
		if err != nil {
			return err
		}
		if err := herkLikeUpdate(A22, A21, a21Adj, blas.NoTrans, blas.NoTrans); err != nil {
			return err
		}
		tr.Debugf("chol.LVar3: %s k=%d", StateAfterTrailing, k)
	}
	return nil
}
