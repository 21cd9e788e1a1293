// Package diffz converts a pair of per-condition correlations into a
// Fisher-z difference statistic with a two-sided normal p-value.
package diffz

import (
	"math"

	"godiffcor/domain/diffcor"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultCeiling is the default correlation magnitude clamp applied before
// the Fisher transform.
const DefaultCeiling = 0.99

// Differencer computes per-pair differential statistics. A ceiling of 0
// resolves to DefaultCeiling at construction.
type Differencer struct {
	ceiling float64
	normal  distuv.Normal
}

// NewDifferencer creates a differencer with the given correlation ceiling.
func NewDifferencer(ceiling float64) *Differencer {
	if ceiling <= 0 || ceiling >= 1 {
		ceiling = DefaultCeiling
	}
	return &Differencer{
		ceiling: ceiling,
		normal:  distuv.Normal{Mu: 0, Sigma: 1},
	}
}

// Ceiling returns the resolved correlation ceiling.
func (d *Differencer) Ceiling() float64 {
	return d.ceiling
}

// Diff assembles PairStatistics for the given pairs from two condition
// results over the same variable set. Raw correlations and their p-values
// pass through unclamped; only the z statistic sees the ceiling. Empirical
// fields start undefined.
func (d *Differencer) Diff(condA, condB *diffcor.ConditionResult, pairs []diffcor.Pair) []diffcor.PairStatistic {
	out := make([]diffcor.PairStatistic, 0, len(pairs))
	for _, p := range pairs {
		stat := diffcor.PairStatistic{
			VariableA:  condA.Variables[p.I],
			VariableB:  condA.Variables[p.J],
			CorrA:      condA.Corr[p.I][p.J],
			PValA:      condA.PValue[p.I][p.J],
			NA:         condA.NUsed[p.I][p.J],
			CorrB:      condB.Corr[p.I][p.J],
			PValB:      condB.PValue[p.I][p.J],
			NB:         condB.NUsed[p.I][p.J],
			EmpiricalP: math.NaN(),
			QValue:     math.NaN(),
		}
		stat.ZDiff, stat.PValDiff = d.zDiff(stat.CorrA, stat.NA, stat.CorrB, stat.NB)
		out = append(out, stat)
	}
	return out
}

// ZDiff computes the Fisher-z difference statistic and its two-sided normal
// p-value for a single pair of correlations with their overlap counts. Both
// values are NaN when either coefficient is undefined or either overlap is
// at most 3 (the standard error 1/sqrt(n-3) requires n > 3).
func (d *Differencer) ZDiff(rA float64, nA int, rB float64, nB int) (zDiff, pValDiff float64) {
	return d.zDiff(rA, nA, rB, nB)
}

func (d *Differencer) zDiff(rA float64, nA int, rB float64, nB int) (float64, float64) {
	if math.IsNaN(rA) || math.IsNaN(rB) || nA <= 3 || nB <= 3 {
		return math.NaN(), math.NaN()
	}

	zA := math.Atanh(d.clamp(rA))
	zB := math.Atanh(d.clamp(rB))
	seA := 1 / math.Sqrt(float64(nA-3))
	seB := 1 / math.Sqrt(float64(nB-3))

	z := (zA - zB) / math.Sqrt(seA*seA+seB*seB)
	p := 2 * d.normal.Survival(math.Abs(z))
	return z, diffcor.FloorPValue(p)
}

// clamp limits the coefficient magnitude to the ceiling, preserving sign.
func (d *Differencer) clamp(r float64) float64 {
	if r > d.ceiling {
		return d.ceiling
	}
	if r < -d.ceiling {
		return -d.ceiling
	}
	return r
}
