package dist

import (
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/mpi"
)

// owns reports whether this process's local tile holds global entry
// (i,j).
func (m *Matrix[T]) owns(i, j int) bool {
	if !m.g.InGrid {
		return false
	}
	cs, cp := m.ColShift(), m.colPeriod()
	if i < cs || (i-cs)%cp != 0 {
		return false
	}
	rs, rp := m.RowShift(), m.rowPeriod()
	if j < rs || (j-rs)%rp != 0 {
		return false
	}
	return true
}

func (m *Matrix[T]) localIndex(i, j int) (int, int) {
	return (i - m.ColShift()) / m.colPeriod(), (j - m.RowShift()) / m.rowPeriod()
}

func (m *Matrix[T]) checkBounds(i, j int) error {
	if i < 0 || i >= m.height || j < 0 || j >= m.width {
		return xerrors.Precondition("dist: index (%d,%d) out of bounds for %dx%d matrix", i, j, m.height, m.width)
	}
	return nil
}

// Get resolves a global entry collectively: each process contributes its
// local value if it owns (i,j), zero otherwise, and an AllReduce-sum over
// the grid-wide communicator combines the non-zero contributions into a
// value every process receives. This trades the extra collective an
// owner-computes-then-broadcasts scheme would save for a scheme that
// needs no per-(Col,Row)-pair owner-rank arithmetic, at the cost of one
// AllReduce per element instead of a point-to-point-plus-broadcast pair.
// A replicated layout ([MC,*], [*,MR], [VC,*], [*,*], ...) has more than
// one owner of (i,j), all holding the same value, so the sum is divided
// by redundancy() to recover that value rather than a multiple of it.
func (m *Matrix[T]) Get(i, j int) (T, error) {
	if err := m.checkBounds(i, j); err != nil {
		return dtype.Zero[T](), err
	}
	if !m.g.InGrid {
		return dtype.Zero[T](), xerrors.Precondition("dist: Get called on an out-of-grid process")
	}
	v := dtype.Zero[T]()
	if m.owns(i, j) {
		li, lj := m.localIndex(i, j)
		v = m.tile.Get(li, lj)
	}
	buf := []T{v}
	if err := mpi.AllReduceSum(m.g.GridComm, buf, buf); err != nil {
		return dtype.Zero[T](), err
	}
	return dtype.Scale(1/float64(m.redundancy()), buf[0]), nil
}

// Set writes a global entry. Every process must call Set with the same
// (i,j,v); only the owning process actually stores it, mirroring
// Elemental's SetLocal-under-the-hood semantics — non-owning processes
// simply have nowhere to put the value and no-op.
func (m *Matrix[T]) Set(i, j int, v T) error {
	if err := m.checkBounds(i, j); err != nil {
		return err
	}
	if !m.owns(i, j) {
		return nil
	}
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: Set on a locked view")
	}
	li, lj := m.localIndex(i, j)
	s.Set(li, lj, v)
	return nil
}

// Update adds v into a global entry, with the same collective-call and
// owner-only-write contract as Set.
func (m *Matrix[T]) Update(i, j int, v T) error {
	if err := m.checkBounds(i, j); err != nil {
		return err
	}
	if !m.owns(i, j) {
		return nil
	}
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: Update on a locked view")
	}
	li, lj := m.localIndex(i, j)
	s.Update(li, lj, v)
	return nil
}

// GetLocal/SetLocal address the local tile directly by local index,
// bypassing ownership resolution, for kernels that already know they
// are talking to their own storage.
func (m *Matrix[T]) GetLocal(li, lj int) T { return m.tile.Get(li, lj) }

func (m *Matrix[T]) SetLocal(li, lj int, v T) error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: SetLocal on a locked view")
	}
	s.Set(li, lj, v)
	return nil
}

func (m *Matrix[T]) UpdateLocal(li, lj int, v T) error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: UpdateLocal on a locked view")
	}
	s.Update(li, lj, v)
	return nil
}
