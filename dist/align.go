package dist

import "github.com/dmatrix/dense/internal/xerrors"

// Align fixes both alignments explicitly and marks them constrained, so
// later AlignWith/redistribution calls will not silently override them.
// Only valid before the matrix owns data other processes have already
// begun to reference (i.e. it is empty or fresh).
func (m *Matrix[T]) Align(colAlignment, rowAlignment int) error {
	if m.viewing {
		return xerrors.Precondition("dist: cannot align a viewing matrix")
	}
	if colAlignment < 0 || colAlignment >= m.colPeriod() {
		return xerrors.Precondition("dist: column alignment %d out of range [0,%d)", colAlignment, m.colPeriod())
	}
	if rowAlignment < 0 || rowAlignment >= m.rowPeriod() {
		return xerrors.Precondition("dist: row alignment %d out of range [0,%d)", rowAlignment, m.rowPeriod())
	}
	m.colAlignment, m.rowAlignment = colAlignment, rowAlignment
	m.constrainedCol, m.constrainedRow = true, true
	m.invalidateLocal()
	m.resizeOwned()
	return nil
}

// axisAlignment looks for an axis of other that cycles over the same grid
// dimension (r-cycling or c-cycling) as want, and returns that axis's
// alignment converted into an alignment for want; it reports false when
// other has no such axis.
//
// MC and VC both cycle with period a multiple of r (VC's period p is a
// multiple of r since p = r*c); an MC alignment in [0,r) is already a
// valid VC alignment. The converse, going from VC to MC, reduces mod r.
// MR and VR mirror this with c in place of r.
func axisAlignment[T any](other *Matrix[T], want Tag) (int, bool) {
	r, c := other.g.R, other.g.C
	pick := func(tag Tag, alignment int) (int, bool, bool) {
		switch {
		case tag == want:
			return alignment, true, true
		case want == MC && tag == VC:
			return alignment % r, true, true
		case want == VC && tag == MC:
			return alignment, true, true
		case want == MR && tag == VR:
			return alignment % c, true, true
		case want == VR && tag == MR:
			return alignment, true, true
		default:
			return 0, false, false
		}
	}
	if a, ok, matched := pick(other.Col, other.colAlignment); matched {
		return a, ok
	}
	if a, ok, matched := pick(other.Row, other.rowAlignment); matched {
		return a, ok
	}
	return 0, false
}

// AlignWith adopts alignment from other along whichever of the receiver's
// axes shares a grid dimension with one of other's axes, leaving axes
// with no counterpart (e.g. a Star axis) untouched. Constrained
// alignments on the receiver are preserved rather than overwritten.
func (m *Matrix[T]) AlignWith(other *Matrix[T]) error {
	if m.viewing {
		return xerrors.Precondition("dist: cannot align a viewing matrix")
	}
	if m.g != other.g {
		return xerrors.Precondition("dist: AlignWith requires matrices on the same grid")
	}
	changed := false
	if !m.constrainedCol && m.Col != Star {
		if a, ok := axisAlignment[T](other, m.Col); ok && a != m.colAlignment {
			m.colAlignment = a
			changed = true
		}
	}
	if !m.constrainedRow && m.Row != Star {
		if a, ok := axisAlignment[T](other, m.Row); ok && a != m.rowAlignment {
			m.rowAlignment = a
			changed = true
		}
	}
	if changed {
		m.invalidateLocal()
		m.resizeOwned()
	}
	return nil
}
