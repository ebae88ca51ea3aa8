package dist

import "github.com/dmatrix/dense/grid"

// rankOnTag recovers the coordinate a process at grid-wide rank r (r is a
// VCRank, i.e. r = MCRank + R*MRRank) would report for rankOnAxis(g,tag),
// without needing that process to be the one asking. Every quantity
// axisAlignment/gatherFull need about a remote rank is a pure function of
// (R,C,r), so this lets the full-gather fallback reconstruct every
// contributor's shift and local extent from its GridComm rank alone.
func rankOnTag(g *grid.Grid, tag Tag, r int) int {
	mc := r % g.R
	mr := r / g.R
	switch tag {
	case MC:
		return mc
	case MR:
		return mr
	case VC:
		return r
	case VR:
		return mr + g.C*mc
	case MD:
		l := lcm(g.R, g.C)
		return (mc - mr + l) % l
	case Star:
		return 0
	default:
		panic("dist: unknown tag")
	}
}
