package chol

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/dmatrix/dense/blas"
	"github.com/dmatrix/dense/config"
	"github.com/dmatrix/dense/dist"
	"github.com/dmatrix/dense/dtype"
	"github.com/dmatrix/dense/grid"
	"github.com/dmatrix/dense/internal/xerrors"
	"github.com/dmatrix/dense/local"
	"github.com/stretchr/testify/require"
)

func newGrids(t *testing.T, r, c int) []*grid.Grid {
	t.Helper()
	return grid.New(r, c, r*c)
}

// runOnAll invokes f once per grid concurrently: every collective this
// package's Factor issues blocks until every rank in its communicator
// has called it, so sequential single-goroutine calls across ranks would
// deadlock, mirroring package dist's own test helper.
func runOnAll(t *testing.T, grids []*grid.Grid, f func(g *grid.Grid) error) {
	t.Helper()
	var wg sync.WaitGroup
	errs := make([]error, len(grids))
	for i, g := range grids {
		wg.Add(1)
		go func(i int, g *grid.Grid) {
			defer wg.Done()
			errs[i] = f(g)
		}(i, g)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "rank %d", i)
	}
}

func setAll[T dtype.Scalar](m *dist.Matrix[T], vals func(i, j int) T) error {
	for i := 0; i < m.Height(); i++ {
		for j := 0; j < m.Width(); j++ {
			if err := m.Set(i, j, vals(i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func gatherAll(m *dist.Matrix[float64]) ([][]float64, error) {
	out := make([][]float64, m.Height())
	for i := range out {
		out[i] = make([]float64, m.Width())
		for j := 0; j < m.Width(); j++ {
			v, err := m.Get(i, j)
			if err != nil {
				return nil, err
			}
			out[i][j] = v
		}
	}
	return out, nil
}

func randomMatrix(rows, cols int, seed uint64) [][]float64 {
	r := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := range out[i] {
			out[i][j] = r.Float64()*2 - 1
		}
	}
	return out
}

// hpdFromRandom builds B*B^T + n*I, which is HPD for any real B (n*I
// dominates the diagonal enough to guarantee positive-definiteness).
func hpdFromRandom(b [][]float64, n int) [][]float64 {
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for p := 0; p < n; p++ {
				sum += b[i][p] * b[j][p]
			}
			if i == j {
				sum += float64(n)
			}
			a[i][j] = sum
		}
	}
	return a
}

// lowerReconstructionError computes ‖L*L^T − A‖_F over the lower
// triangle only (the strict upper half of a factored matrix is not
// zeroed, so it holds leftover values rather than zeros), at extended
// precision so the residual sum itself is not corrupted by float64
// rounding when judging "close enough to zero".
func lowerReconstructionError(l, a [][]float64, n int) (diff, norm float64) {
	var diffTerms, normTerms []float64
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := 0.0
			for p := 0; p <= j; p++ {
				sum += l[i][p] * l[j][p]
			}
			diffTerms = append(diffTerms, sum-a[i][j])
			normTerms = append(normTerms, a[i][j])
		}
	}
	return dtype.HighPrecisionNorm(diffTerms), dtype.HighPrecisionNorm(normTerms)
}

func TestFactorIdentityIsIdentity(t *testing.T) {
	grids := newGrids(t, 2, 2)
	cfg := &config.Config{Blocksize: 2, MinCollectiveMsg: 1}
	runOnAll(t, grids, func(g *grid.Grid) error {
		A := dist.New[float64](g, dist.MC, dist.MR, 4, 4, cfg)
		if err := A.SetToIdentity(); err != nil {
			return err
		}
		if err := Factor[float64](LVar2, A, 0); err != nil {
			return err
		}
		got, err := gatherAll(A)
		if err != nil {
			return err
		}
		for i := 0; i < 4; i++ {
			for j := 0; j <= i; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				if math.Abs(got[i][j]-want) > 1e-9 {
					return fmt.Errorf("L[%d][%d] = %v, want %v", i, j, got[i][j], want)
				}
			}
		}
		return nil
	})
}

func TestFactorTridiagonalMatchesClosedForm(t *testing.T) {
	n := 4
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		a[i][i] = 2
		if i > 0 {
			a[i][i-1] = -1
			a[i-1][i] = -1
		}
	}
	grids := newGrids(t, 2, 2)
	cfg := &config.Config{Blocksize: 2, MinCollectiveMsg: 1}
	runOnAll(t, grids, func(g *grid.Grid) error {
		A := dist.New[float64](g, dist.MC, dist.MR, n, n, cfg)
		if err := setAll(A, func(i, j int) float64 { return a[i][j] }); err != nil {
			return err
		}
		if err := Factor[float64](LVar2, A, 0); err != nil {
			return err
		}
		got, err := gatherAll(A)
		if err != nil {
			return err
		}
		diff, norm := lowerReconstructionError(got, a, n)
		if diff > 1e-9*math.Max(norm, 1) {
			return fmt.Errorf("reconstruction error %.3e exceeds tolerance", diff)
		}
		for i := 0; i < n; i++ {
			want := math.Sqrt(float64(i+2) / float64(i+1))
			if math.Abs(got[i][i]-want) > 1e-9 {
				return fmt.Errorf("L[%d][%d] = %v, want %v", i, i, got[i][i], want)
			}
			if i+1 < n {
				wantSub := -math.Sqrt(float64(i+1) / float64(i+2))
				if math.Abs(got[i+1][i]-wantSub) > 1e-9 {
					return fmt.Errorf("L[%d][%d] = %v, want %v", i+1, i, got[i+1][i], wantSub)
				}
			}
		}
		return nil
	})
}

func TestFactorRandomHPDReconstructsWithinTolerance(t *testing.T) {
	n := 8
	a := hpdFromRandom(randomMatrix(n, n, 7), n)
	grids := newGrids(t, 2, 2)
	cfg := &config.Config{Blocksize: 3, MinCollectiveMsg: 1}
	runOnAll(t, grids, func(g *grid.Grid) error {
		A := dist.New[float64](g, dist.MC, dist.MR, n, n, cfg)
		if err := setAll(A, func(i, j int) float64 { return a[i][j] }); err != nil {
			return err
		}
		if err := Factor[float64](LVar2, A, 0); err != nil {
			return err
		}
		got, err := gatherAll(A)
		if err != nil {
			return err
		}
		diff, norm := lowerReconstructionError(got, a, n)
		if diff > 1e-8*norm {
			return fmt.Errorf("reconstruction error %.3e exceeds 1e-8*%.3e", diff, norm)
		}
		return nil
	})
}

func TestFactorRejectsNonHPD(t *testing.T) {
	grids := newGrids(t, 1, 1)
	cfg := &config.Config{Blocksize: 2, MinCollectiveMsg: 1}
	m := dist.New[float64](grids[0], dist.MC, dist.MR, 2, 2, cfg)
	require.NoError(t, m.Set(0, 0, 1))
	require.NoError(t, m.Set(1, 1, -1))
	err := Factor[float64](LVar2, m, 0)
	require.Error(t, err)
	kind, ok := xerrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, xerrors.NotHPD, kind)
}

func TestFactorRejectsNonSquare(t *testing.T) {
	grids := newGrids(t, 1, 1)
	m := dist.New[float64](grids[0], dist.MC, dist.MR, 3, 4, nil)
	err := Factor[float64](LVar2, m, 0)
	require.Error(t, err)
	kind, ok := xerrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, xerrors.PreconditionViolated, kind)
}

func TestFactorRejectsWrongDistribution(t *testing.T) {
	grids := newGrids(t, 1, 1)
	m := dist.New[float64](grids[0], dist.Star, dist.Star, 3, 3, nil)
	err := Factor[float64](LVar2, m, 0)
	require.Error(t, err)
	kind, ok := xerrors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, xerrors.PreconditionViolated, kind)
}

func TestVariantsAgreeAcrossLowerAndUpper(t *testing.T) {
	n := 6
	a := hpdFromRandom(randomMatrix(n, n, 11), n)
	grids := newGrids(t, 2, 2)
	cfg := &config.Config{Blocksize: 2, MinCollectiveMsg: 1}
	runOnAll(t, grids, func(g *grid.Grid) error {
		build := func() (*dist.Matrix[float64], error) {
			m := dist.New[float64](g, dist.MC, dist.MR, n, n, cfg)
			if err := setAll(m, func(i, j int) float64 { return a[i][j] }); err != nil {
				return nil, err
			}
			return m, nil
		}
		mLVar2, err := build()
		if err != nil {
			return err
		}
		mLVar3, err := build()
		if err != nil {
			return err
		}
		mUVar3, err := build()
		if err != nil {
			return err
		}
		mReverseUVar3, err := build()
		if err != nil {
			return err
		}
		if err := Factor[float64](LVar2, mLVar2, 0); err != nil {
			return err
		}
		if err := Factor[float64](LVar3, mLVar3, 0); err != nil {
			return err
		}
		if err := Factor[float64](UVar3, mUVar3, 0); err != nil {
			return err
		}
		if err := Factor[float64](ReverseUVar3, mReverseUVar3, 0); err != nil {
			return err
		}
		l2, err := gatherAll(mLVar2)
		if err != nil {
			return err
		}
		l3, err := gatherAll(mLVar3)
		if err != nil {
			return err
		}
		u3, err := gatherAll(mUVar3)
		if err != nil {
			return err
		}
		ru3, err := gatherAll(mReverseUVar3)
		if err != nil {
			return err
		}
		var diffTerms, normTerms []float64
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				diffTerms = append(diffTerms, l2[i][j]-l3[i][j], l2[i][j]-u3[j][i], l2[i][j]-ru3[j][i])
				normTerms = append(normTerms, l2[i][j])
			}
		}
		diff, norm := dtype.HighPrecisionNorm(diffTerms), dtype.HighPrecisionNorm(normTerms)
		if diff > 1e-8*norm {
			return fmt.Errorf("variant mismatch %.3e exceeds tolerance", diff)
		}
		return nil
	})
}

func TestFactorOnUnitGridMatchesLocalKernel(t *testing.T) {
	n := 5
	a := hpdFromRandom(randomMatrix(n, n, 3), n)
	grids := newGrids(t, 1, 1)
	cfg := &config.Config{Blocksize: 2, MinCollectiveMsg: 1}
	m := dist.New[float64](grids[0], dist.MC, dist.MR, n, n, cfg)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.NoError(t, m.Set(i, j, a[i][j]))
		}
	}
	require.NoError(t, Factor[float64](LVar2, m, 0))

	serial := local.NewOwned[float64](n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			serial.Set(i, j, a[i][j])
		}
	}
	require.NoError(t, blas.LocalCholesky[float64](blas.LowerForward, serial))

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			got, err := m.Get(i, j)
			require.NoError(t, err)
			require.InDelta(t, serial.Get(i, j), got, 1e-9)
		}
	}
}
