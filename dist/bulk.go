package dist

import (
	"math/rand/v2"

	"github.com/dmatrix/dense/blas"
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/mpi"
)

// forEachLocal walks every local entry, calling f with its global (i,j)
// and local (li,lj) coordinates.
func (m *Matrix[T]) forEachLocal(f func(i, j, li, lj int)) {
	if !m.g.InGrid {
		return
	}
	cs, cp := m.ColShift(), m.colPeriod()
	rs, rp := m.RowShift(), m.rowPeriod()
	for lj := 0; lj < m.LocalWidth(); lj++ {
		j := rs + lj*rp
		for li := 0; li < m.LocalHeight(); li++ {
			i := cs + li*cp
			f(i, j, li, lj)
		}
	}
}

// bulkPoolWidth bounds how many of a tile's local columns a bulk fill
// fans out across at once. §5's "optional intra-tile parallelism over
// independent loop nests" allowance, not a correctness requirement, so a
// small fixed width is enough.
const bulkPoolWidth = 4

// forEachLocalCol is forEachLocal's column-parallel counterpart: same
// signature and the same (i,j) visits, but once there are enough columns to
// make the goroutine overhead worth it they run across a worker pool, so
// the order across columns is not defined. Columns
// never alias each other's storage, so running them concurrently is safe
// even though every column writes into the same backing slice.
func (m *Matrix[T]) forEachLocalCol(f func(i, j, li, lj int)) {
	if !m.g.InGrid {
		return
	}
	cs, cp := m.ColShift(), m.colPeriod()
	rs, rp := m.RowShift(), m.rowPeriod()
	lh, lw := m.LocalHeight(), m.LocalWidth()
	run := func(lj int) {
		j := rs + lj*rp
		for li := 0; li < lh; li++ {
			f(cs+li*cp, j, li, lj)
		}
	}
	if lw < 2*bulkPoolWidth {
		for lj := 0; lj < lw; lj++ {
			run(lj)
		}
		return
	}
	pool := mpi.NewWorkerPool(bulkPoolWidth)
	for lj := 0; lj < lw; lj++ {
		lj := lj
		pool.Run(func() error { run(lj); return nil })
	}
	_ = pool.Wait()
}

// trapezoidalShift folds side into the offset MakeTrapezoidal/
// ScaleTrapezoidal compare against: side=Left leaves k unchanged, side=Right
// shifts it by height-width, matching Elemental's [MC,*]::MakeTrapezoidal
// lastZeroRow/firstZeroRow formulas for a rectangular matrix. Side is
// irrelevant (and the two agree) whenever the matrix is square.
func (m *Matrix[T]) trapezoidalShift(side blas.Side, k int) int {
	if side == blas.Left {
		return k
	}
	return k - (m.Height() - m.Width())
}

// MakeTrapezoidal zeroes every entry strictly on the opposite side of the
// diagonal offset by k from uplo, measured from side: for Lower it zeroes
// the entries with j > i+k (above the k-th superdiagonal), for Upper those
// with j < i+k (below the k-th superdiagonal).
func (m *Matrix[T]) MakeTrapezoidal(side blas.Side, lower bool, k int) error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: MakeTrapezoidal on a locked view")
	}
	k = m.trapezoidalShift(side, k)
	zero := dtype.Zero[T]()
	m.forEachLocalCol(func(i, j, li, lj int) {
		if lower {
			if j > i+k {
				s.Set(li, lj, zero)
			}
		} else {
			if j < i+k {
				s.Set(li, lj, zero)
			}
		}
	})
	return nil
}

// ScaleTrapezoidal scales the same triangular region MakeTrapezoidal
// would preserve, leaving the other side untouched.
func (m *Matrix[T]) ScaleTrapezoidal(alpha float64, side blas.Side, lower bool, k int) error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: ScaleTrapezoidal on a locked view")
	}
	k = m.trapezoidalShift(side, k)
	m.forEachLocalCol(func(i, j, li, lj int) {
		inRegion := (lower && j <= i+k) || (!lower && j >= i+k)
		if inRegion {
			s.Set(li, lj, dtype.Scale(alpha, m.tile.Get(li, lj)))
		}
	})
	return nil
}

// SetToIdentity zeroes the matrix and then sets every diagonal entry to
// one.
func (m *Matrix[T]) SetToIdentity() error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: SetToIdentity on a locked view")
	}
	one := dtype.One[T]()
	zero := dtype.Zero[T]()
	m.forEachLocalCol(func(i, j, li, lj int) {
		if i == j {
			s.Set(li, lj, one)
		} else {
			s.Set(li, lj, zero)
		}
	})
	return nil
}

// SetToRandom fills every local entry independently from a process-local
// generator, then brings any replicated (Star) axis back into agreement:
// the rank-0 draw along that axis is broadcast over the rest of it, so two
// processes that both own the same global index under a [*,X] or [X,*]
// distribution never observe different values for it.
func (m *Matrix[T]) SetToRandom() error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: SetToRandom on a locked view")
	}
	m.forEachLocalCol(func(i, j, li, lj int) {
		s.Set(li, lj, randomEntry[T]())
	})
	if !m.g.InGrid {
		return nil
	}
	if m.Col == Star {
		if err := m.replicateAxis(m.g.MC); err != nil {
			return err
		}
	}
	if m.Row == Star {
		if err := m.replicateAxis(m.g.MR); err != nil {
			return err
		}
	}
	return nil
}

// replicateAxis overwrites the local tile with the draw held by rank 0 of
// comm, broadcasting it across the rest of the communicator. Run for [*,MR]
// over MC and then for [*,*]'s second leg over MR, rank 0 of MR already
// agrees across every MC coordinate, so the second broadcast lands the same
// global value everywhere rather than just within one MR column.
func (m *Matrix[T]) replicateAxis(comm mpi.Comm) error {
	s := m.tile.(setter[T])
	buf := pack[T](m.tile)
	if err := mpi.Broadcast(comm, buf, 0); err != nil {
		return err
	}
	lh := m.tile.Height()
	for j := 0; j < m.tile.Width(); j++ {
		for i := 0; i < lh; i++ {
			s.Set(i, j, buf[i+j*lh])
		}
	}
	return nil
}

func randomEntry[T dtype.Scalar]() T {
	re := rand.Float64()*2 - 1
	if !dtype.IsComplex[T]() {
		return dtype.FromReal[T](re)
	}
	im := rand.Float64()*2 - 1
	return dtype.ComplexOf[T](re, im)
}
