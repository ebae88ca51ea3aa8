package dtype

import (
	"math/big"

	"github.com/ALTree/bigfloat"
)

// HighPrecisionNorm computes sqrt(sum(v_i^2)) at extended precision, using
// github.com/ALTree/bigfloat the way the teacher's minimax-approximation
// error bounds use it, so that residual checks like ||L*L^H - A||_F are not
// themselves corrupted by float64 rounding when they judge "close enough
// to zero".
func HighPrecisionNorm(v []float64) float64 {
	sum := new(big.Float).SetPrec(200)
	for _, x := range v {
		term := new(big.Float).SetPrec(200).SetFloat64(x)
		term.Mul(term, term)
		sum.Add(sum, term)
	}
	root := bigfloat.Sqrt(sum)
	f, _ := root.Float64()
	return f
}
