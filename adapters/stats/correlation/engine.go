// Package correlation computes per-condition pairwise correlation matrices
// with overlap counts and asymptotic significance p-values.
package correlation

import (
	"math"

	"godiffcor/domain/core"
	"godiffcor/domain/diffcor"
	"godiffcor/domain/matrix"

	"gonum.org/v1/gonum/stat/distuv"
)

// Options configures a correlation engine for one analysis run.
type Options struct {
	Method    diffcor.CorrelationMethod
	SplitSet  []core.VariableKey // optional pair restriction
	SplitMode diffcor.SplitMode  // split_vs_rest (default) or split_vs_split
}

// Engine computes ConditionResults. It carries its full configuration
// explicitly; there is no ambient or process-wide state.
type Engine struct {
	method    diffcor.CorrelationMethod
	strategy  coefficientStrategy
	split     map[core.VariableKey]bool
	splitMode diffcor.SplitMode
}

// coefficientStrategy computes a correlation coefficient on two
// pairwise-complete, equal-length vectors. The method selector is resolved
// into a strategy exactly once, at engine construction.
type coefficientStrategy interface {
	coefficient(x, y []float64) float64
}

// NewEngine resolves the method selector and builds an engine.
func NewEngine(opts Options) (*Engine, error) {
	var strategy coefficientStrategy
	switch opts.Method {
	case diffcor.MethodPearson, "":
		strategy = pearsonStrategy{}
	case diffcor.MethodSpearman:
		strategy = spearmanStrategy{}
	default:
		return nil, core.NewConfigurationError("unknown correlation method " + string(opts.Method))
	}

	method := opts.Method
	if method == "" {
		method = diffcor.MethodPearson
	}
	splitMode := opts.SplitMode
	if splitMode == "" {
		splitMode = diffcor.SplitVersusRest
	}
	var split map[core.VariableKey]bool
	if len(opts.SplitSet) > 0 {
		split = make(map[core.VariableKey]bool, len(opts.SplitSet))
		for _, v := range opts.SplitSet {
			split[v] = true
		}
	}

	return &Engine{
		method:    method,
		strategy:  strategy,
		split:     split,
		splitMode: splitMode,
	}, nil
}

// Method returns the resolved correlation method.
func (e *Engine) Method() diffcor.CorrelationMethod {
	return e.method
}

// Pairs enumerates the variable pairs this engine computes, honoring the
// split-set restriction.
func (e *Engine) Pairs(variables []core.VariableKey) []diffcor.Pair {
	return diffcor.PairsFor(variables, e.split, e.splitMode)
}

// Compute resolves the condition's samples from the design matrix and
// computes the correlation result over those columns.
func (e *Engine) Compute(expr *matrix.ExpressionMatrix, design *matrix.DesignMatrix, condition string) (*diffcor.ConditionResult, error) {
	if design.SampleCount() != expr.SampleCount() {
		return nil, core.NewSampleCountError(design.SampleCount(), expr.SampleCount())
	}
	samples, err := design.SampleIndices(condition)
	if err != nil {
		return nil, err
	}
	return e.ComputeSubset(expr, condition, samples), nil
}

// ComputeSubset computes the condition result over an explicit sample column
// subset. The permutation engine drives this directly with relabeled sample
// index slices; the expression matrix is never copied or mutated.
func (e *Engine) ComputeSubset(expr *matrix.ExpressionMatrix, condition string, samples []int) *diffcor.ConditionResult {
	variables := expr.Variables()
	result := diffcor.NewConditionResult(condition, variables)

	// Materialize each variable's values over the condition's samples once.
	cols := make([][]float64, len(variables))
	for i := range variables {
		cols[i] = expr.Subset(i, samples)
	}

	// Diagonal: self-correlation is 1 unless the row itself is degenerate.
	for i := range variables {
		n := nonMissingCount(cols[i])
		if n >= 3 {
			result.Corr[i][i] = 1
		}
		result.NUsed[i][i] = n
	}

	for _, p := range e.Pairs(variables) {
		x, y := completeCases(cols[p.I], cols[p.J])
		n := len(x)
		if n < 3 {
			// Undefined coefficient and p-value, propagated not raised.
			result.SetPair(p.I, p.J, math.NaN(), n, math.NaN())
			continue
		}
		r := e.strategy.coefficient(x, y)
		if math.IsNaN(r) {
			result.SetPair(p.I, p.J, math.NaN(), n, math.NaN())
			continue
		}
		result.SetPair(p.I, p.J, r, n, diffcor.FloorPValue(correlationPValue(r, n)))
	}
	return result
}

// completeCases aligns two columns on their pairwise-complete observations.
func completeCases(a, b []float64) (x, y []float64) {
	x = make([]float64, 0, len(a))
	y = make([]float64, 0, len(b))
	for k := range a {
		if math.IsNaN(a[k]) || math.IsNaN(b[k]) {
			continue
		}
		x = append(x, a[k])
		y = append(y, b[k])
	}
	return x, y
}

func nonMissingCount(col []float64) int {
	n := 0
	for _, v := range col {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// correlationPValue is the two-sided asymptotic significance of a
// coefficient at overlap n, via the t distribution with n-2 degrees of
// freedom. Both Pearson's r and Spearman's rho use the same t statistic;
// for Spearman this is the standard large-sample approximation.
func correlationPValue(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return math.NaN()
	}
	denom := 1 - r*r
	if denom <= 0 {
		// |r| = 1: the t statistic diverges, the p-value hits the floor.
		return 0
	}
	t := math.Abs(r) * math.Sqrt(df/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(t)
}
