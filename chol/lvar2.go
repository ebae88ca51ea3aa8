package chol

import (
	"github.com/dmatrix/dense/blas"
	"github.com/dmatrix/dense/dist"
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/trace"
)

// lvar2 is the left-looking lower blocked sweep: before a diagonal block
// is factored, the panel already computed to its left (A10, A20) is
// applied to it and to the block column below it. Grounded on
// Elemental's cholesky::LVar2 distributed driver: the [MR,*] adjoint
// staging, the [MC,*] partial-product-then-SumScatterUpdate pattern for
// both A11 and A21, and the [*,*]/[VC,*] staging around the diagonal
// factor and panel solve all mirror that source directly.
func lvar2[T dtype.Scalar](A *dist.Matrix[T], blocksize int, tr *trace.Tracer) error {
	n := A.Height()
	for k := 0; k < n; k += blocksize {
		nb := min(blocksize, n-k)
		trailing := n - (k + nb)
		tr.Debugf("chol.LVar2: %s k=%d nb=%d", StateBeforeBlock, k, nb)

		A11, err := dist.View(A, k, k, nb, nb)
		if err != nil {
			return err
		}
		A21, err := dist.View(A, k+nb, k, trailing, nb)
		if err != nil {
			return err
		}

		if k > 0 {
			A10, err := dist.View(A, k, 0, nb, k)
			if err != nil {
				return err
			}
			a10Adj, err := adjointReplicate(dist.MR, dist.Star, A10, A10)
			if err != nil {
				return err
			}
			if err := herkLikeUpdate(A11, A10, a10Adj, blas.NoTrans, blas.NoTrans); err != nil {
				return err
			}
			if trailing > 0 {
				A20, err := dist.View(A, k+nb, 0, trailing, k)
				if err != nil {
					return err
				}
				if err := herkLikeUpdate(A21, A20, a10Adj, blas.NoTrans, blas.NoTrans); err != nil {
					return err
				}
			}
		}

		a11Full, err := factorDiagonalBlock(A11, blas.LowerForward)
		if err != nil {
			return err
		}
		tr.Debugf("chol.LVar2: %s k=%d", StateAfterDiagonal, k)

		if trailing > 0 {
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
		}
		tr.Debugf("chol.LVar2: %s k=%d", StateAfterPanel, k)
	}
	return nil
}
