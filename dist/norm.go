package dist

import (
	"fmt"
	"io"
	"math"

	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/local"
	"github.com/dmatrix/dense/mpi"
)

// redundancy is how many processes hold an identical copy of any given
// local entry: P divided by the number of distinct (Col,Row) coordinate
// pairs the grid actually produces. [MC,MR] has redundancy 1 (every
// entry lives on exactly one process); [MC,*] has redundancy C, since
// every one of the C processes sharing an MC coordinate holds the same
// row range.
func (m *Matrix[T]) redundancy() int {
	return m.g.P / (m.colPeriod() * m.rowPeriod())
}

// FrobeniusNormSquared sums |a_ij|^2 over every local entry, corrects
// for replication by dividing by redundancy() rather than resolving a
// canonical owner per replicated group, and combines across the grid
// with a single AllReduce.
func (m *Matrix[T]) FrobeniusNormSquared() (float64, error) {
	if !m.g.InGrid {
		return 0, xerrors.Precondition("dist: FrobeniusNormSquared on an out-of-grid process")
	}
	lh, lw := m.LocalHeight(), m.LocalWidth()
	sumSq := 0.0
	for j := 0; j < lw; j++ {
		for i := 0; i < lh; i++ {
			a := dtype.Abs(m.tile.Get(i, j))
			sumSq += a * a
		}
	}
	buf := []float64{sumSq}
	if err := mpi.AllReduceSum(m.g.GridComm, buf, buf); err != nil {
		return 0, err
	}
	return buf[0] / float64(m.redundancy()), nil
}

// FrobeniusNorm is sqrt(FrobeniusNormSquared).
func (m *Matrix[T]) FrobeniusNorm() (float64, error) {
	sq, err := m.FrobeniusNormSquared()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sq), nil
}

// ConjugateInPlace replaces every local entry with its conjugate. It
// needs no communication: conjugation commutes with the partition, and
// replicated copies stay identical because every replica applies the
// same transform.
func (m *Matrix[T]) ConjugateInPlace() error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: ConjugateInPlace on a locked view")
	}
	for j := 0; j < m.tile.Width(); j++ {
		for i := 0; i < m.tile.Height(); i++ {
			s.Set(i, j, dtype.Conj(m.tile.Get(i, j)))
		}
	}
	return nil
}

// Adjoint sets dst to src's conjugate transpose, redistributing as
// necessary. Unlike Assign's fast paths, this always goes through the
// fully replicated intermediate: transposition changes which physical
// grid dimension backs each axis, and Elemental's dedicated transpose
// communicator (built from grid-diagonal shifts) is not reproduced here.
func Adjoint[T dtype.Scalar](dst, src *Matrix[T]) error {
	if dst.g != src.g {
		return xerrors.Precondition("dist: Adjoint requires matrices on the same grid")
	}
	full, err := src.gatherFull()
	if err != nil {
		return err
	}
	t := local.NewOwned[T](src.width, src.height)
	for j := 0; j < src.width; j++ {
		for i := 0; i < src.height; i++ {
			t.Set(j, i, dtype.Conj(full.Get(i, j)))
		}
	}
	if dst.height != src.width || dst.width != src.height {
		if dst.viewing {
			return xerrors.Precondition("dist: Adjoint shape mismatch")
		}
		if err := dst.ResizeTo(src.width, src.height); err != nil {
			return err
		}
	}
	if !dst.g.InGrid {
		return nil
	}
	return dst.scatterFromFull(t)
}

// Fprint gathers m onto every process and has GridComm rank 0 write it,
// row-major, to w. Every process must call Fprint together.
func Fprint[T dtype.Scalar](w io.Writer, label string, m *Matrix[T]) error {
	full, err := m.gatherFull()
	if err != nil {
		return err
	}
	if m.g.GridComm.Rank() != 0 {
		return nil
	}
	if label != "" {
		fmt.Fprintln(w, label)
	}
	for i := 0; i < full.Height(); i++ {
		for j := 0; j < full.Width(); j++ {
			fmt.Fprintf(w, "%v ", full.Get(i, j))
		}
		fmt.Fprintln(w)
	}
	return nil
}
