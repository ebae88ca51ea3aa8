package local

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestOwnedResizeShrinkReusesBuffer(t *testing.T) {
	o := NewOwned[float64](4, 4)
	buf := o.Buffer()
	o.Resize(2, 2)
	require.Equal(t, 2, o.Height())
	require.Same(t, &buf[0], &o.Buffer()[0])
}

func TestOwnedResizeGrowReallocates(t *testing.T) {
	o := NewOwned[float64](2, 2)
	o.Resize(8, 8)
	require.Equal(t, 8, o.Height())
	require.Equal(t, 8, o.Width())
}

func TestSetGet(t *testing.T) {
	o := NewOwned[float64](3, 3)
	o.Set(1, 2, 5)
	require.Equal(t, 5.0, o.Get(1, 2))
}

func TestViewAliasesStorage(t *testing.T) {
	o := NewOwned[float64](4, 4)
	o.Set(2, 2, 9)
	v := ViewSub[float64](o, 1, 1, 2, 2)
	require.Equal(t, 9.0, v.Get(1, 1))
	v.Set(1, 1, 99)
	require.Equal(t, 99.0, o.Get(2, 2))
}

func TestLockedViewHasNoSet(t *testing.T) {
	o := NewOwned[float64](2, 2)
	lv := LockedViewOf[float64](o)
	require.Equal(t, 0.0, lv.Get(0, 0))
	// LockedView intentionally exposes no Set method; this is a
	// compile-time guarantee, not something exercised at runtime here.
}

func TestViewOutOfBoundsPanics(t *testing.T) {
	o := NewOwned[float64](2, 2)
	require.Panics(t, func() { ViewSub[float64](o, 0, 0, 3, 3) })
}

func TestCloneIsIndependent(t *testing.T) {
	o := NewOwned[float64](2, 2)
	o.Set(0, 0, 1)
	cp := o.Clone()
	cp.Set(0, 0, 2)
	require.Equal(t, 1.0, o.Get(0, 0))
	require.Equal(t, 2.0, cp.Get(0, 0))
}

func TestEqual(t *testing.T) {
	a := NewOwned[float64](2, 2)
	b := NewOwned[float64](2, 2)
	require.True(t, a.Equal(b))
	b.Set(0, 0, 1)
	require.False(t, a.Equal(b))
}

func TestCloneBufferMatchesSourceByteForByte(t *testing.T) {
	o := NewOwned[float64](3, 3)
	o.Set(0, 1, 4)
	o.Set(2, 0, -7)
	cp := o.Clone()
	if diff := cmp.Diff(o.Buffer(), cp.Buffer()); diff != "" {
		t.Errorf("clone buffer mismatch (-original +clone):\n%s", diff)
	}
}

func TestView1x2Composition(t *testing.T) {
	a := NewOwned[float64](2, 2)
	b := NewOwned[float64](2, 3)
	a.Set(0, 0, 1)
	b.Set(0, 0, 2)
	combined, err := View1x2[float64](a, b)
	require.NoError(t, err)
	require.Equal(t, 2, combined.Height())
	require.Equal(t, 5, combined.Width())
	require.Equal(t, 1.0, combined.Get(0, 0))
	require.Equal(t, 2.0, combined.Get(0, 2))
}

func TestView1x2HeightMismatchErrors(t *testing.T) {
	a := NewOwned[float64](2, 2)
	b := NewOwned[float64](3, 2)
	_, err := View1x2[float64](a, b)
	require.Error(t, err)
}

func TestView2x2Composition(t *testing.T) {
	tl := NewOwned[float64](1, 1)
	tr := NewOwned[float64](1, 1)
	bl := NewOwned[float64](1, 1)
	br := NewOwned[float64](1, 1)
	tl.Set(0, 0, 1)
	tr.Set(0, 0, 2)
	bl.Set(0, 0, 3)
	br.Set(0, 0, 4)
	combined, err := View2x2[float64](tl, tr, bl, br)
	require.NoError(t, err)
	require.Equal(t, 2, combined.Height())
	require.Equal(t, 2, combined.Width())
	require.Equal(t, 1.0, combined.Get(0, 0))
	require.Equal(t, 2.0, combined.Get(0, 1))
	require.Equal(t, 3.0, combined.Get(1, 0))
	require.Equal(t, 4.0, combined.Get(1, 1))
}

func TestZero(t *testing.T) {
	o := NewOwned[float64](2, 2)
	o.Set(0, 0, 5)
	o.Zero()
	require.Equal(t, 0.0, o.Get(0, 0))
}
