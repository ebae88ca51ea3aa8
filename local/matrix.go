// Package local implements the strided column-major tile owned by one
// process: LocalMatrix in spec terms. Ownership versus aliasing is encoded
// directly in the type layer (Owned vs View vs LockedView) rather than by a
// runtime boolean, and the backing-buffer composition follows the
// teacher's ring.RNSPoly.FromBuffer / BufferSize / Resize pattern (shrink
// in place, reallocate to grow).
package local

import (
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/internal/xerrors"
)

// Tile is the read contract shared by Owned, View, and LockedView: height,
// width, leading dimension, element access, and a locked escape hatch to
// the raw backing slice for the redistribution packing routines.
type Tile[T dtype.Scalar] interface {
	Height() int
	Width() int
	LDim() int
	Get(i, j int) T
	LockedBuffer() []T
}

// core holds the fields common to every tile kind: a column-major backing
// slice, its logical extent, and its leading dimension (stride between
// columns).
type core[T dtype.Scalar] struct {
	data []T
	m, n int
	ldim int
}

func (c *core[T]) Height() int { return c.m }
func (c *core[T]) Width() int  { return c.n }
func (c *core[T]) LDim() int   { return c.ldim }

func (c *core[T]) index(i, j int) int {
	if i < 0 || i >= c.m || j < 0 || j >= c.n {
		panic(xerrors.Precondition("local: index (%d,%d) out of bounds for %dx%d tile", i, j, c.m, c.n))
	}
	return i + j*c.ldim
}

func (c *core[T]) Get(i, j int) T { return c.data[c.index(i, j)] }

func (c *core[T]) LockedBuffer() []T { return c.data }

// IsEmpty reports whether the tile has zero rows or columns.
func (c *core[T]) IsEmpty() bool { return c.m == 0 || c.n == 0 }

// Owned is a LocalMatrix that allocates and owns its backing storage. Only
// an Owned tile may be resized.
type Owned[T dtype.Scalar] struct {
	core[T]
}

// NewOwned allocates a fresh m x n owning tile, zero-filled.
func NewOwned[T dtype.Scalar](m, n int) *Owned[T] {
	o := &Owned[T]{}
	o.Resize(m, n)
	return o
}

// BufferSize returns the minimum backing-slice length an m x n owning tile
// needs.
func BufferSize(m, n int) int {
	ldim := m
	if ldim < 1 {
		ldim = 1
	}
	return ldim * n
}

// FromBuffer assigns buf as the receiver's backing storage, sized for an
// m x n tile. Panics if buf is too small, mirroring
// ring.RNSPoly.FromBuffer's contract.
func (o *Owned[T]) FromBuffer(m, n int, buf []T) {
	if m < 0 || n < 0 {
		panic(xerrors.Precondition("local: negative dimension %dx%d", m, n))
	}
	ldim := m
	if ldim < 1 {
		ldim = 1
	}
	need := ldim * n
	if len(buf) < need {
		panic(xerrors.Precondition("local: buffer too small: need %d, have %d", need, len(buf)))
	}
	o.data = buf[:need]
	o.m, o.n, o.ldim = m, n, ldim
}

// Resize changes the owning tile's logical extent. When the new height
// fits the current leading dimension and the columns still fit the
// existing capacity, the backing array and leading dimension are kept, so
// a shrink reuses storage and entries still in range keep their values
// (entries outside the previous extent are not cleared); anything else
// reallocates a zeroed array. This mirrors RNSPoly.Resize's
// shrink-in-place / grow-reallocate split.
func (o *Owned[T]) Resize(m, n int) {
	if m < 0 || n < 0 {
		panic(xerrors.Precondition("local: negative dimension %dx%d", m, n))
	}
	ldim := m
	if ldim < 1 {
		ldim = 1
	}
	if ldim <= o.ldim && o.ldim*n <= cap(o.data) {
		ldim = o.ldim
		o.data = o.data[:ldim*n]
	} else {
		o.data = make([]T, ldim*n)
	}
	o.m, o.n, o.ldim = m, n, ldim
}

// Buffer exposes the raw backing slice for mutation, the escape hatch the
// redistribution packing routines need.
func (o *Owned[T]) Buffer() []T { return o.data }

// Set writes a single element. Only owning and mutable-view tiles expose
// Set; LockedView does not, by construction.
func (o *Owned[T]) Set(i, j int, v T) { o.data[o.index(i, j)] = v }

// Update adds v into the element at (i,j).
func (o *Owned[T]) Update(i, j int, v T) {
	idx := o.index(i, j)
	o.data[idx] = dtype.Add(o.data[idx], v)
}

// Zero sets every element to the additive identity.
func (o *Owned[T]) Zero() {
	zero := dtype.Zero[T]()
	for j := 0; j < o.n; j++ {
		row := o.data[j*o.ldim : j*o.ldim+o.m]
		for i := range row {
			row[i] = zero
		}
	}
}

// CopyFrom resizes the receiver to src's extent and copies every element.
func (o *Owned[T]) CopyFrom(src Tile[T]) {
	o.Resize(src.Height(), src.Width())
	for j := 0; j < o.n; j++ {
		for i := 0; i < o.m; i++ {
			o.Set(i, j, src.Get(i, j))
		}
	}
}

// Clone returns a deep copy of the receiver.
func (o *Owned[T]) Clone() *Owned[T] {
	cp := &Owned[T]{}
	cp.CopyFrom(o)
	return cp
}

// Copy copies other's elements onto the receiver, resizing as needed.
func (o *Owned[T]) Copy(other *Owned[T]) { o.CopyFrom(other) }

// Equal reports whether the receiver and other have the same extent and
// elements.
func (o *Owned[T]) Equal(other *Owned[T]) bool {
	if o.m != other.m || o.n != other.n {
		return false
	}
	for j := 0; j < o.n; j++ {
		for i := 0; i < o.m; i++ {
			if o.Get(i, j) != other.Get(i, j) {
				return false
			}
		}
	}
	return true
}

// View is a LocalMatrix that aliases storage owned elsewhere and permits
// mutation of the aliased elements. Resize is unavailable by construction.
type View[T dtype.Scalar] struct {
	core[T]
}

// LockedView aliases storage owned elsewhere and forbids mutation; it has
// no Set method at all, so writes are rejected at compile time rather than
// by a runtime flag.
type LockedView[T dtype.Scalar] struct {
	core[T]
}

func viewSlice[T dtype.Scalar](src Tile[T], i, j, m, n int) []T {
	if i < 0 || j < 0 || m < 0 || n < 0 || i+m > src.Height() || j+n > src.Width() {
		panic(xerrors.Precondition("local: sub-view (%d,%d,%d,%d) out of bounds for %dx%d tile", i, j, m, n, src.Height(), src.Width()))
	}
	if m == 0 || n == 0 {
		return src.LockedBuffer()[:0]
	}
	ldim := src.LDim()
	buf := src.LockedBuffer()
	start := i + j*ldim
	end := start + (n-1)*ldim + m
	return buf[start:end]
}

// ViewOf returns a mutable view over the full extent of src.
func ViewOf[T dtype.Scalar](src Tile[T]) *View[T] {
	return ViewSub(src, 0, 0, src.Height(), src.Width())
}

// ViewSub returns a mutable view over src[i:i+m, j:j+n].
func ViewSub[T dtype.Scalar](src Tile[T], i, j, m, n int) *View[T] {
	return &View[T]{core[T]{data: viewSlice(src, i, j, m, n), m: m, n: n, ldim: src.LDim()}}
}

// LockedViewOf returns a read-only view over the full extent of src.
func LockedViewOf[T dtype.Scalar](src Tile[T]) *LockedView[T] {
	return LockedViewSub(src, 0, 0, src.Height(), src.Width())
}

// LockedViewSub returns a read-only view over src[i:i+m, j:j+n].
func LockedViewSub[T dtype.Scalar](src Tile[T], i, j, m, n int) *LockedView[T] {
	return &LockedView[T]{core[T]{data: viewSlice(src, i, j, m, n), m: m, n: n, ldim: src.LDim()}}
}

// Buffer exposes the raw backing slice for mutation.
func (v *View[T]) Buffer() []T { return v.data }

// Set writes a single element of the aliased storage.
func (v *View[T]) Set(i, j int, val T) { v.data[v.index(i, j)] = val }

// Update adds val into the element at (i,j) of the aliased storage.
func (v *View[T]) Update(i, j int, val T) {
	idx := v.index(i, j)
	v.data[idx] = dtype.Add(v.data[idx], val)
}
