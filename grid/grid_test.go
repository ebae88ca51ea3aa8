package grid

import (
	"sync"
	"testing"

	"github.com/dmatrix/dense/mpi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// coords is the snapshot of a rank's grid coordinates used to check that
// grid construction is deterministic.
type coords struct {
	MCRank, MRRank, VCRank, VRRank int
	InGrid                         bool
}

func snapshot(grids []*Grid) []coords {
	out := make([]coords, len(grids))
	for i, g := range grids {
		out[i] = coords{g.MCRank, g.MRRank, g.VCRank, g.VRRank, g.InGrid}
	}
	return out
}

func TestGridConstructionIsDeterministic(t *testing.T) {
	a := snapshot(New(2, 3, 8))
	b := snapshot(New(2, 3, 8))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("grid coordinates not deterministic across construction (-first +second):\n%s", diff)
	}
}

func TestGridCoordinates(t *testing.T) {
	grids := New(2, 3, 6)
	seenVC := map[int]bool{}
	seenVR := map[int]bool{}
	for rank, g := range grids {
		require.True(t, g.InGrid)
		require.Equal(t, rank%2, g.MCRank)
		require.Equal(t, rank/2, g.MRRank)
		require.Equal(t, g.MCRank+2*g.MRRank, g.VCRank)
		require.Equal(t, g.MRRank+3*g.MCRank, g.VRRank)
		seenVC[g.VCRank] = true
		seenVR[g.VRRank] = true
	}
	require.Len(t, seenVC, 6)
	require.Len(t, seenVR, 6)
}

func TestGridIdleRanks(t *testing.T) {
	grids := New(2, 2, 6)
	require.Len(t, grids, 6)
	for i := 0; i < 4; i++ {
		require.True(t, grids[i].InGrid)
	}
	for i := 4; i < 6; i++ {
		require.False(t, grids[i].InGrid)
		require.Nil(t, grids[i].MC)
		require.NotNil(t, grids[i].Viewing)
	}
}

func TestShift(t *testing.T) {
	require.Equal(t, 0, Shift(2, 2, 4))
	require.Equal(t, 3, Shift(1, 2, 4))
}

func TestMCCommGroupsColumn(t *testing.T) {
	grids := New(2, 2, 4)
	// Column 0 holds grid ranks 0 and 1 (MCRank 0 and 1, MRRank 0).
	var wg sync.WaitGroup
	results := make([]float64, 2)
	for rank := 0; rank < 2; rank++ {
		g := grids[rank]
		wg.Add(1)
		go func(rank int, g *Grid) {
			defer wg.Done()
			buf := []float64{0}
			if g.MCRank == 0 {
				buf[0] = 42
			}
			_ = mpi.Broadcast(g.MC, buf, 0)
			results[rank] = buf[0]
		}(rank, g)
	}
	wg.Wait()
	require.Equal(t, []float64{42, 42}, results)
}
