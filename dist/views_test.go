package dist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViewSubBlockMatchesGlobalIndices(t *testing.T) {
	grids := newGrids(t, 2, 2)
	global := func(i, j int) float64 { return float64(i*10 + j) }
	for _, g := range grids {
		m := New[float64](g, MC, MR, 6, 6, nil)
		m.forEachLocalSet(global)
		sub, err := View[float64](m, 2, 3, 3, 2)
		require.NoError(t, err)
		require.Equal(t, 3, sub.Height())
		require.Equal(t, 2, sub.Width())
		sub.forEachLocal(func(i, j, li, lj int) {
			require.Equal(t, global(i+2, j+3), sub.GetLocal(li, lj))
		})
	}
}

func TestLockedViewRejectsWrites(t *testing.T) {
	grids := newGrids(t, 1, 1)
	m := New[float64](grids[0], Star, Star, 4, 4, nil)
	lv, err := LockedView[float64](m, 1, 1, 2, 2)
	require.NoError(t, err)
	require.Error(t, lv.SetLocal(0, 0, 1))
}

func TestViewOutOfBoundsErrors(t *testing.T) {
	grids := newGrids(t, 1, 1)
	m := New[float64](grids[0], Star, Star, 3, 3, nil)
	_, err := View[float64](m, 2, 2, 5, 5)
	require.Error(t, err)
}
