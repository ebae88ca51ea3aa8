package dist

import (
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/local"
)

// subAlignment and subLocalOffset are the two pieces of arithmetic every
// DistMatrix sub-view needs: viewing a block that starts at global index
// off shifts the alignment by off mod period (Elemental's View rule),
// and the local storage offset is the count of this process's owned
// indices strictly before off, i.e. the smallest local index li with
// parentShift+li*period >= off.
func subAlignment(parentAlignment, off, period int) int {
	a := (parentAlignment + off) % period
	if a < 0 {
		a += period
	}
	return a
}

func subLocalOffset(parentShift, off, period int) int {
	if off <= parentShift {
		return 0
	}
	return (off - parentShift + period - 1) / period
}

// View returns a sub-view of parent covering global rows [i,i+h) and
// columns [j,j+w), aliasing parent's storage: mutable if parent is
// mutable, locked if parent is a locked view. Both this process's local
// offset into parent's tile and the view's own alignment are derived
// once, at construction, from parent's alignment and the block's
// starting corner — the same arithmetic local.ViewSub uses to slice a
// single process's tile, lifted to global coordinates.
func View[T dtype.Scalar](parent *Matrix[T], i, j, h, w int) (*Matrix[T], error) {
	if i < 0 || j < 0 || h < 0 || w < 0 || i+h > parent.height || j+w > parent.width {
		return nil, xerrors.Precondition("dist: sub-view (%d,%d,%d,%d) out of bounds for %dx%d matrix", i, j, h, w, parent.height, parent.width)
	}
	v := &Matrix[T]{
		g: parent.g, cfg: parent.cfg,
		Col: parent.Col, Row: parent.Row,
		height: h, width: w,
		viewing: true, lockedView: parent.lockedView,
		constrainedCol: true, constrainedRow: true,
	}
	if !parent.g.InGrid {
		v.tile = local.NewOwned[T](0, 0)
		return v, nil
	}
	cp, rp := parent.colPeriod(), parent.rowPeriod()
	v.colAlignment = subAlignment(parent.colAlignment, i, cp)
	v.rowAlignment = subAlignment(parent.rowAlignment, j, rp)
	li0 := subLocalOffset(parent.ColShift(), i, cp)
	lj0 := subLocalOffset(parent.RowShift(), j, rp)
	lh, lw := v.LocalHeight(), v.LocalWidth()
	if v.lockedView {
		v.tile = local.LockedViewSub[T](parent.tile, li0, lj0, lh, lw)
	} else {
		v.tile = local.ViewSub[T](parent.tile, li0, lj0, lh, lw)
	}
	return v, nil
}

// LockedView is View's read-only counterpart: the result exposes no
// mutation regardless of parent's own mutability.
func LockedView[T dtype.Scalar](parent *Matrix[T], i, j, h, w int) (*Matrix[T], error) {
	if i < 0 || j < 0 || h < 0 || w < 0 || i+h > parent.height || j+w > parent.width {
		return nil, xerrors.Precondition("dist: sub-view (%d,%d,%d,%d) out of bounds for %dx%d matrix", i, j, h, w, parent.height, parent.width)
	}
	v := &Matrix[T]{
		g: parent.g, cfg: parent.cfg,
		Col: parent.Col, Row: parent.Row,
		height: h, width: w,
		viewing: true, lockedView: true,
		constrainedCol: true, constrainedRow: true,
	}
	if !parent.g.InGrid {
		v.tile = local.NewOwned[T](0, 0)
		return v, nil
	}
	cp, rp := parent.colPeriod(), parent.rowPeriod()
	v.colAlignment = subAlignment(parent.colAlignment, i, cp)
	v.rowAlignment = subAlignment(parent.rowAlignment, j, rp)
	li0 := subLocalOffset(parent.ColShift(), i, cp)
	lj0 := subLocalOffset(parent.RowShift(), j, rp)
	v.tile = local.LockedViewSub[T](parent.tile, li0, lj0, v.LocalHeight(), v.LocalWidth())
	return v, nil
}
