// Package grid implements the two-dimensional process arrangement the
// distribution layer partitions matrices over: an r x c grid of processes
// with six derived communicators (MC, MR, VC, VR, a grid-wide communicator,
// and a larger viewing communicator that may include idle ranks).
package grid

import "github.com/dmatrix/dense/mpi"

// Grid is immutable once constructed; every field and communicator is
// computed once by New and safe to read concurrently thereafter (spec §5's
// shared-resource policy).
type Grid struct {
	// R, C are the grid height and width; P = R*C.
	R, C, P int

	// MCRank in [0,R) is this process's row-process-axis coordinate.
	MCRank int
	// MRRank in [0,C) is this process's column-process-axis coordinate.
	MRRank int
	// VCRank = MCRank + R*MRRank orders all P processes column-major.
	VCRank int
	// VRRank = MRRank + C*MCRank orders all P processes row-major.
	VRRank int

	// InGrid reports whether this process is one of the R*C participants;
	// ranks beyond R*C in the viewing communicator have InGrid == false
	// and every communicator below except Viewing is nil.
	InGrid bool

	// MC groups the R processes sharing this process's MRRank (a grid
	// column).
	MC mpi.Comm
	// MR groups the C processes sharing this process's MCRank (a grid
	// row).
	MR mpi.Comm
	// VC groups all P processes, ranked by VCRank.
	VC mpi.Comm
	// VR groups all P processes, ranked by VRRank.
	VR mpi.Comm
	// GridComm groups all P processes, ranked identically to VC.
	GridComm mpi.Comm

	// Viewing groups every process that knows about this Grid, including
	// idle ranks with InGrid == false. Collectives invoked on out-of-grid
	// ranks must still be well-defined on this communicator.
	Viewing mpi.Comm
}

// New builds a Grid of rows x cols processes, embedded in a viewing
// communicator of viewSize ranks (viewSize is raised to rows*cols if
// smaller). It returns one *Grid per viewing rank, index-aligned with that
// rank's identity, mirroring how the six communicators are constructed
// once and shared read-only across the lifetime of the grid.
func New(rows, cols, viewSize int) []*Grid {
	if rows <= 0 || cols <= 0 {
		panic("grid: rows and cols must be positive")
	}
	p := rows * cols
	if viewSize < p {
		viewSize = p
	}

	viewing := mpi.NewUniverse(viewSize)
	gridWide := mpi.NewUniverse(p)
	vc := mpi.NewUniverse(p)
	vr := mpi.NewUniverse(p)

	mcByCol := make([][]*mpi.LocalComm, cols)
	for j := range mcByCol {
		mcByCol[j] = mpi.NewUniverse(rows)
	}
	mrByRow := make([][]*mpi.LocalComm, rows)
	for i := range mrByRow {
		mrByRow[i] = mpi.NewUniverse(cols)
	}

	grids := make([]*Grid, viewSize)
	for rank := 0; rank < viewSize; rank++ {
		g := &Grid{R: rows, C: cols, P: p, Viewing: viewing[rank]}
		if rank < p {
			i := rank % rows
			j := rank / rows
			g.InGrid = true
			g.MCRank = i
			g.MRRank = j
			g.VCRank = i + rows*j
			g.VRRank = j + cols*i
			g.GridComm = gridWide[rank]
			g.VC = vc[g.VCRank]
			g.VR = vr[g.VRRank]
			g.MC = mcByCol[j][i]
			g.MR = mrByRow[i][j]
		}
		grids[rank] = g
	}
	return grids
}

// Shift computes the smallest global index a process at the given rank on
// an axis owns, given that axis's alignment and modulus (period). It is a
// free function because every redistribution family invokes it, on both
// source and destination alignments.
func Shift(rank, alignment, modulus int) int {
	return (rank - alignment + modulus) % modulus
}
