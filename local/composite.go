package local

import "github.com/dmatrix/dense/internal/xerrors"

// View1x2 combines left and right, which must share a height, into a
// single Tile logically n(left)+n(right) columns wide — the read-side
// counterpart of Elemental's View1x2. The result has no single backing
// buffer, so LockedBuffer panics; call sites that need raw-slice access
// should address the two halves separately.
func View1x2[T any](left, right Tile[T]) (Tile[T], error) {
	if left.Height() != right.Height() {
		return nil, xerrors.Precondition("local.View1x2: height mismatch %d != %d", left.Height(), right.Height())
	}
	return &composite1x2[T]{left: left, right: right}, nil
}

type composite1x2[T any] struct {
	left, right Tile[T]
}

func (c *composite1x2[T]) Height() int { return c.left.Height() }
func (c *composite1x2[T]) Width() int  { return c.left.Width() + c.right.Width() }
func (c *composite1x2[T]) LDim() int   { return c.left.LDim() }
func (c *composite1x2[T]) Get(i, j int) T {
	if j < c.left.Width() {
		return c.left.Get(i, j)
	}
	return c.right.Get(i, j-c.left.Width())
}
func (c *composite1x2[T]) LockedBuffer() []T {
	panic("local: composite view has no single backing buffer")
}

// View2x1 stacks top over bottom, which must share a width, into a single
// Tile logically m(top)+m(bottom) rows tall.
func View2x1[T any](top, bottom Tile[T]) (Tile[T], error) {
	if top.Width() != bottom.Width() {
		return nil, xerrors.Precondition("local.View2x1: width mismatch %d != %d", top.Width(), bottom.Width())
	}
	return &composite2x1[T]{top: top, bottom: bottom}, nil
}

type composite2x1[T any] struct {
	top, bottom Tile[T]
}

func (c *composite2x1[T]) Height() int { return c.top.Height() + c.bottom.Height() }
func (c *composite2x1[T]) Width() int  { return c.top.Width() }
func (c *composite2x1[T]) LDim() int   { return c.top.LDim() }
func (c *composite2x1[T]) Get(i, j int) T {
	if i < c.top.Height() {
		return c.top.Get(i, j)
	}
	return c.bottom.Get(i-c.top.Height(), j)
}
func (c *composite2x1[T]) LockedBuffer() []T {
	panic("local: composite view has no single backing buffer")
}

// View2x2 arranges four blocks with matching inner dimensions
// (tl/tr share a height, bl/br share a height, tl/bl share a width,
// tr/br share a width) into a single logical Tile.
func View2x2[T any](tl, tr, bl, br Tile[T]) (Tile[T], error) {
	top, err := View1x2(tl, tr)
	if err != nil {
		return nil, err
	}
	bottom, err := View1x2(bl, br)
	if err != nil {
		return nil, err
	}
	return View2x1(top, bottom)
}
