package dist

import (
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/grid"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/local"
	"github.com/dmatrix/dense/mpi"
)

// maxLocalHeight/maxLocalWidth are the local extents a shift of zero
// would see: the numroc bound is maximized at shift zero, since that is
// the shift that catches the "extra" remainder index when the dimension
// does not divide the period evenly.
func (m *Matrix[T]) maxLocalHeight() int { return localLength(m.height, 0, m.colPeriod()) }
func (m *Matrix[T]) maxLocalWidth() int  { return localLength(m.width, 0, m.rowPeriod()) }

// portionFloor clamps a per-participant collective portion size up to the
// configured platform minimum (§4.6), so an empty tile never drives an
// AllGather/ReduceScatter/SendRecv down to a genuinely zero-length
// message. Every caller derives its raw portion from the same global
// (height, width, alignment, period) state every other participant in
// the same collective sees, so applying this monotonic floor uniformly
// never desynchronizes the equal-portion contract those collectives rely
// on.
func (m *Matrix[T]) portionFloor(n int) int {
	if n < m.cfg.MinCollectiveMsg {
		return m.cfg.MinCollectiveMsg
	}
	return n
}

// gatherFull assembles the complete height x width matrix, replicated on
// every in-grid process, by packing each process's local tile into a
// fixed-size (maxLocalHeight x maxLocalWidth) chunk, padding unused
// entries with zero, and AllGathering across the grid-wide communicator.
// Every receiver can then recover contributor r's true local extent from
// r's GridComm rank alone (see rankOnTag), because alignment and period
// are matrix-wide constants, not per-process state.
//
// This is the composition-through-an-intermediate family of
// redistribution: any (Col,Row) pair can reach any other by going
// through [*,*], at the cost of moving every element instead of only the
// ones a targeted point-to-point exchange would need. Assign uses it as
// the fallback for pairs that do not have a dedicated fast path below.
func (m *Matrix[T]) gatherFull() (*local.Owned[T], error) {
	if !m.g.InGrid {
		return nil, xerrors.Precondition("dist: gatherFull on an out-of-grid process")
	}
	if m.Col == Star && m.Row == Star {
		full := local.NewOwned[T](m.height, m.width)
		full.CopyFrom(m.tile)
		return full, nil
	}
	maxLH, maxLW := m.maxLocalHeight(), m.maxLocalWidth()
	chunk := m.portionFloor(maxLH * maxLW)
	send := make([]T, chunk)
	lh, lw := m.LocalHeight(), m.LocalWidth()
	for j := 0; j < lw; j++ {
		for i := 0; i < lh; i++ {
			send[i+j*maxLH] = m.tile.Get(i, j)
		}
	}
	recv := make([]T, chunk*m.g.P)
	if err := mpi.AllGather(m.g.GridComm, send, recv); err != nil {
		return nil, err
	}
	full := local.NewOwned[T](m.height, m.width)
	cp, rp := m.colPeriod(), m.rowPeriod()
	for r := 0; r < m.g.P; r++ {
		colRank := rankOnTag(m.g, m.Col, r)
		rowRank := rankOnTag(m.g, m.Row, r)
		cs := grid.Shift(colRank, m.colAlignment, cp)
		rs := grid.Shift(rowRank, m.rowAlignment, rp)
		lhr := localLength(m.height, cs, cp)
		lwr := localLength(m.width, rs, rp)
		base := r * chunk
		for lj := 0; lj < lwr; lj++ {
			j := rs + lj*rp
			for li := 0; li < lhr; li++ {
				i := cs + li*cp
				full.Set(i, j, recv[base+li+lj*maxLH])
			}
		}
	}
	return full, nil
}

// scatterFromFull selects, purely locally, this process's entries out of
// a replicated full matrix.
func (m *Matrix[T]) scatterFromFull(full local.Tile[T]) error {
	s, ok := m.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: redistribution target is a locked view")
	}
	m.forEachLocal(func(i, j, li, lj int) {
		s.Set(li, lj, full.Get(i, j))
	})
	return nil
}

// isMD reports whether tag t is the diagonal distribution,
// which Assign refuses to move data into or out of: real Elemental
// leaves most MD redistribution paths unimplemented too, and picking up
// its exact diagonal-rank bookkeeping is out of scope here.
func isMD(t Tag) bool { return t == MD }

// Assign copies src's global contents into dst, redistributing across
// whatever (Col,Row) change is required. dst is resized to match src
// when it owns its storage and is not already the right shape; a
// viewing dst must already have src's exact dimensions.
func Assign[T dtype.Scalar](dst, src *Matrix[T]) error {
	if dst.g != src.g {
		return xerrors.Precondition("dist: Assign requires matrices on the same grid")
	}
	if isMD(dst.Col) != isMD(src.Col) || isMD(dst.Row) != isMD(src.Row) {
		return xerrors.UnimplementedF("dist: redistribution into/out of a diagonal (MD) distribution is not supported")
	}
	if dst.height != src.height || dst.width != src.width {
		if dst.viewing {
			return xerrors.Precondition("dist: Assign shape mismatch %dx%d != %dx%d", dst.height, dst.width, src.height, src.width)
		}
		if err := dst.ResizeTo(src.height, src.width); err != nil {
			return err
		}
	}
	if !dst.g.InGrid {
		return nil
	}

	// Edge case (§4.6): an unaligned, unconstrained, non-viewing dst
	// adopts src's alignment outright rather than paying for a family-3
	// rotation to get there.
	if !dst.viewing {
		adopted := false
		if !dst.constrainedCol && dst.Col != Star && dst.colAlignment != src.colAlignment {
			if a, ok := axisAlignment[T](src, dst.Col); ok {
				dst.colAlignment = a
				adopted = true
			}
		}
		if !dst.constrainedRow && dst.Row != Star && dst.rowAlignment != src.rowAlignment {
			if a, ok := axisAlignment[T](src, dst.Row); ok {
				dst.rowAlignment = a
				adopted = true
			}
		}
		if adopted {
			dst.invalidateLocal()
			dst.resizeOwned()
		}
	}

	// Family 3: identical (Col,Row) pattern but misaligned on one or both
	// axes. Rotate a throwaway copy of src into dst's alignment with a
	// pairwise SendRecv per axis, then fall through to a plain local
	// copy — the family-2/family-1 boundary the design note calls out.
	if dst.Col == src.Col && dst.Row == src.Row &&
		(dst.colAlignment != src.colAlignment || dst.rowAlignment != src.rowAlignment) {
		tmp, err := src.realignedCopy(dst.colAlignment, dst.rowAlignment)
		if err != nil {
			return err
		}
		return dst.copyLocalFrom(tmp.tile)
	}

	// Family 1: identical policy and alignment is a pure local copy.
	if dst.Col == src.Col && dst.Row == src.Row &&
		dst.colAlignment == src.colAlignment && dst.rowAlignment == src.rowAlignment {
		return dst.copyLocalFrom(src.tile)
	}

	// Family 2: dst replicates one axis src distributes (dst's Col
	// matches src's Col exactly and dst.Row is Star, or the mirror on
	// Row), with matching alignment on the shared axis. This is the
	// [MC,*] = [MC,MR] pattern.
	if fast, err := assignReplicateRow(dst, src); fast {
		return err
	}
	if fast, err := assignReplicateCol(dst, src); fast {
		return err
	}

	// General case: compose through the fully replicated intermediate.
	full, err := src.gatherFull()
	if err != nil {
		return err
	}
	return dst.scatterFromFull(full)
}

// assignReplicateRow handles dst = [X,*], src = [X,Y] for any tag X
// shared on the column axis, gathering only across src's row-axis
// communicator instead of the whole grid — the historically named
// [MC,*] = [MC,MR] case, generalized to any column tag the two
// matrices share.
func assignReplicateRow[T dtype.Scalar](dst, src *Matrix[T]) (bool, error) {
	if !(dst.Row == Star && src.Row != Star && dst.Col == src.Col && dst.colAlignment == src.colAlignment) {
		return false, nil
	}
	comm, err := src.axisComm(src.Row)
	if err != nil {
		return false, nil
	}
	lh := src.LocalHeight()
	maxLW := src.maxLocalWidth()
	chunk := src.portionFloor(lh * maxLW)
	send := make([]T, chunk)
	lw := src.LocalWidth()
	for j := 0; j < lw; j++ {
		for i := 0; i < lh; i++ {
			send[i+j*lh] = src.tile.Get(i, j)
		}
	}
	recv := make([]T, chunk*comm.Size())
	if err := mpi.AllGather(comm, send, recv); err != nil {
		return true, err
	}
	s, ok := dst.tile.(setter[T])
	if !ok {
		return true, xerrors.Precondition("dist: Assign target is a locked view")
	}
	rp := src.rowPeriod()
	// The row communicator already enumerates exactly the ranks that
	// vary src's Row-axis coordinate while holding this process's
	// column-axis coordinate fixed, in that axis's natural order, so
	// contributor k's row-axis rank is simply k.
	for k := 0; k < comm.Size(); k++ {
		rs := grid.Shift(k, src.rowAlignment, rp)
		lwk := localLength(src.width, rs, rp)
		base := k * chunk
		for lj := 0; lj < lwk; lj++ {
			j := rs + lj*rp
			for i := 0; i < lh; i++ {
				s.Set(i, j, recv[base+i+lj*lh])
			}
		}
	}
	return true, nil
}

// assignReplicateCol mirrors assignReplicateRow across the column axis:
// dst = [*,X], src = [Y,X].
func assignReplicateCol[T dtype.Scalar](dst, src *Matrix[T]) (bool, error) {
	if !(dst.Col == Star && src.Col != Star && dst.Row == src.Row && dst.rowAlignment == src.rowAlignment) {
		return false, nil
	}
	comm, err := src.axisComm(src.Col)
	if err != nil {
		return false, nil
	}
	lw := src.LocalWidth()
	maxLH := src.maxLocalHeight()
	chunk := src.portionFloor(maxLH * lw)
	send := make([]T, chunk)
	lh := src.LocalHeight()
	for j := 0; j < lw; j++ {
		for i := 0; i < lh; i++ {
			send[i+j*maxLH] = src.tile.Get(i, j)
		}
	}
	recv := make([]T, chunk*comm.Size())
	if err := mpi.AllGather(comm, send, recv); err != nil {
		return true, err
	}
	s, ok := dst.tile.(setter[T])
	if !ok {
		return true, xerrors.Precondition("dist: Assign target is a locked view")
	}
	cp := src.colPeriod()
	for k := 0; k < comm.Size(); k++ {
		cs := grid.Shift(k, src.colAlignment, cp)
		lhk := localLength(src.height, cs, cp)
		base := k * chunk
		for j := 0; j < lw; j++ {
			for li := 0; li < lhk; li++ {
				i := cs + li*cp
				s.Set(i, j, recv[base+li+j*maxLH])
			}
		}
	}
	return true, nil
}

// copyLocalFrom writes src's local entries into dst's local tile,
// assuming both already agree on distribution and alignment (or have
// already been brought into agreement by a realignedCopy). The one
// genuinely local step every redistribution family eventually bottoms
// out in.
func (dst *Matrix[T]) copyLocalFrom(src local.Tile[T]) error {
	s, ok := dst.tile.(setter[T])
	if !ok {
		return xerrors.Precondition("dist: Assign target is a locked view")
	}
	if o, ok := s.(*local.Owned[T]); ok {
		o.CopyFrom(src)
		return nil
	}
	for lj := 0; lj < dst.LocalWidth(); lj++ {
		for li := 0; li < dst.LocalHeight(); li++ {
			s.Set(li, lj, src.Get(li, lj))
		}
	}
	return nil
}

// realignAxis rotates m's local tile along whichever of its own axes
// tag t names, via one pairwise SendRecv, changing only that axis's
// alignment. Per spec §4.6 family 3, sendRank = (rank+period+alignDst-
// alignSrc) mod period is a pure rotation of axis-rank space, so a
// sender's pre-rotation extent along that axis equals its receiver's
// post-rotation extent: no re-shaping, just a buffer exchange, with both
// buffers padded up to the portion floor.
func (m *Matrix[T]) realignAxis(t Tag, newAlign int) error {
	isCol := t == m.Col
	oldAlign := m.rowAlignment
	if isCol {
		oldAlign = m.colAlignment
	}
	if oldAlign == newAlign {
		return nil
	}
	comm, err := m.axisComm(t)
	if err != nil {
		return err
	}
	per := period(m.g, t)
	rank := rankOnAxis(m.g, t)
	sendTo := (rank + newAlign - oldAlign + per) % per
	recvFrom := (rank + oldAlign - newAlign + per) % per

	lh, lw := m.tile.Height(), m.tile.Width()
	n, other := m.height, lw
	if !isCol {
		n, other = m.width, lh
	}
	// This rank's own pre- and post-rotation extents along t generally
	// differ when n does not divide per evenly (one shift catches the
	// remainder index, the other does not), so the receive length is
	// computed from this rank's own post-rotation shift rather than
	// assumed equal to its send length.
	newLen := localLength(n, grid.Shift(rank, newAlign, per), per)

	// pack[T] sizes send to exactly this rank's real old extent; the
	// portion floor only ever grows it, so the real payload always
	// occupies a send[:realLen] prefix and the receiver's unpacking loop
	// below, which only ever reads recv[:newLen*other], never touches
	// the padding on either end.
	send := append(pack[T](m.tile), make([]T, m.portionFloor(lh*lw)-lh*lw)...)
	recv := make([]T, m.portionFloor(newLen*other))
	if err := mpi.SendRecv(comm, send, sendTo, mpi.AnyTag, recv, recvFrom, mpi.AnyTag); err != nil {
		return err
	}
	if isCol {
		m.colAlignment = newAlign
	} else {
		m.rowAlignment = newAlign
	}
	newLH, newLW := newLen, lw
	if !isCol {
		newLH, newLW = lh, newLen
	}
	owned := local.NewOwned[T](newLH, newLW)
	for j := 0; j < newLW; j++ {
		for i := 0; i < newLH; i++ {
			owned.Set(i, j, recv[i+j*newLH])
		}
	}
	m.tile = owned
	return nil
}

// realignedCopy returns a throwaway owning copy of src with the same
// (Col,Row) pattern re-aligned to (colAlign,rowAlign), leaving src
// itself untouched — src is the right-hand side of an assignment and
// must not be mutated by computing it.
func (src *Matrix[T]) realignedCopy(colAlign, rowAlign int) (*Matrix[T], error) {
	tmp := &Matrix[T]{
		g: src.g, cfg: src.cfg,
		Col: src.Col, Row: src.Row,
		height: src.height, width: src.width,
		colAlignment: src.colAlignment, rowAlignment: src.rowAlignment,
		constrainedCol: true, constrainedRow: true,
	}
	owned := local.NewOwned[T](src.tile.Height(), src.tile.Width())
	owned.CopyFrom(src.tile)
	tmp.tile = owned
	if colAlign != tmp.colAlignment {
		if err := tmp.realignAxis(tmp.Col, colAlign); err != nil {
			return nil, err
		}
	}
	if rowAlign != tmp.rowAlignment {
		if err := tmp.realignAxis(tmp.Row, rowAlign); err != nil {
			return nil, err
		}
	}
	return tmp, nil
}

