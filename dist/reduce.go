package dist

import (
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/grid"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/local"
	"github.com/dmatrix/dense/mpi"
)

// pack copies a tile's local entries into a fresh contiguous column-major
// slice, so kernels that need raw byte access never have to worry about a
// view's leading dimension exceeding its height.
func pack[T dtype.Scalar](t local.Tile[T]) []T {
	m, n := t.Height(), t.Width()
	out := make([]T, m*n)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			out[i+j*m] = t.Get(i, j)
		}
	}
	return out
}

// SumOverRow reduces a [MC,MR]-distributed matrix's redundant partial
// contributions across the row-process communicator (MR), leaving every
// process in the row holding the same summed tile. It is grounded on the
// SumScatterUpdate/local-partial-sum pattern local Herk/Trrk use before a
// trailing update is folded into the target matrix.
func (m *Matrix[T]) SumOverRow() error {
	return m.sumOverAxis(m.Row)
}

// SumOverCol is SumOverRow's mirror image across the column-process
// communicator (MC).
func (m *Matrix[T]) SumOverCol() error {
	return m.sumOverAxis(m.Col)
}

func (m *Matrix[T]) axisComm(t Tag) (mpi.Comm, error) {
	switch t {
	case MC:
		return m.g.MC, nil
	case MR:
		return m.g.MR, nil
	case VC:
		return m.g.VC, nil
	case VR:
		return m.g.VR, nil
	default:
		return nil, xerrors.UnimplementedF("dist: no per-axis communicator for tag %s", t)
	}
}

func (m *Matrix[T]) sumOverAxis(t Tag) error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: sum-reduction on a locked view")
	}
	comm, err := m.axisComm(t)
	if err != nil {
		return err
	}
	buf := pack[T](m.tile)
	if err := mpi.AllReduceSum(comm, buf, buf); err != nil {
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

// SumScatterUpdate treats partial as a [MC,*] tile spanning m's full
// (view-local) width, redundantly held by every process sharing this
// process's column-axis rank, and reduce-scatters its columns across the
// row communicator so each process receives the sum, over every such
// redundant copy, of exactly the columns it owns. Column ownership along
// the row axis is cyclic (local column lj sits at global-within-view
// column m.RowShift()+lj*m.RowStride(), not at a contiguous block), so
// partial's columns are regrouped by destination rank before the
// reduce-scatter and the per-rank group widths — which need not be equal
// when m's width doesn't divide the row communicator's size evenly — are
// passed through explicitly, mirroring Elemental's SumScatter column
// interleave. This is the trailing-update step Cholesky's local rank-k
// accumulation depends on: every process along a row computes the same
// [MC,*] partial product redundantly, and SumScatterUpdate is what turns
// the redundant partials into the correct [MC,MR] contribution without an
// explicit local matmul against a mask.
func (m *Matrix[T]) SumScatterUpdate(alpha float64, partial local.Tile[T]) error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: SumScatterUpdate on a locked view")
	}
	comm, err := m.axisComm(m.Row)
	if err != nil {
		return err
	}
	lh := m.LocalHeight()
	nb := partial.Width()
	if partial.Height() != lh {
		return xerrors.Precondition("dist: SumScatterUpdate partial shape %dx%d, want height %d", partial.Height(), nb, lh)
	}
	stride := comm.Size()
	counts := make([]int, stride)
	total := 0
	for r := 0; r < stride; r++ {
		shift := grid.Shift(r, m.rowAlignment, stride)
		counts[r] = m.portionFloor(localLength(nb, shift, stride) * lh)
		total += counts[r]
	}
	sbuf := make([]T, total)
	off := 0
	for r := 0; r < stride; r++ {
		shift := grid.Shift(r, m.rowAlignment, stride)
		start := off
		for j := shift; j < nb; j += stride {
			for i := 0; i < lh; i++ {
				sbuf[off] = partial.Get(i, j)
				off++
			}
		}
		// counts[r] may exceed this rank's real column contribution
		// when the portion floor kicks in; off only advances past the
		// real data above, so the gap up to the floor is left zeroed.
		off = start + counts[r]
	}
	lw := m.LocalWidth()
	rbuf := make([]T, m.portionFloor(lh*lw))
	if err := mpi.ReduceScatterSumV(comm, sbuf, rbuf, counts); err != nil {
		return err
	}
	for j := 0; j < lw; j++ {
		for i := 0; i < lh; i++ {
			s.Update(i, j, dtype.Scale(alpha, rbuf[i+j*lh]))
		}
	}
	return nil
}
