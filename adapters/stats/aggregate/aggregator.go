// Package aggregate selects, sorts, adjusts, and assembles the final
// differential correlation output table.
package aggregate

import (
	"math"
	"sort"

	"godiffcor/domain/core"
	"godiffcor/domain/diffcor"
)

// SelectAll requests every retained pair instead of a fixed count.
const SelectAll = -1

// Options configures the aggregation step.
type Options struct {
	SelectCount int // positive, or SelectAll
	Adjust      diffcor.AdjustMethod
}

// Aggregator assembles the final result rows.
type Aggregator struct {
	opts Options
}

// NewAggregator validates options and builds an aggregator. A selection
// count that is neither positive nor SelectAll fails fast.
func NewAggregator(opts Options) (*Aggregator, error) {
	if opts.SelectCount != SelectAll && opts.SelectCount <= 0 {
		return nil, core.ErrBadSelectCount
	}
	if opts.Adjust == "" {
		opts.Adjust = diffcor.AdjustNone
	}
	switch opts.Adjust {
	case diffcor.AdjustNone, diffcor.AdjustBH, diffcor.AdjustBY, diffcor.AdjustPermutation:
	default:
		return nil, core.NewConfigurationError("unknown adjustment method " + string(opts.Adjust))
	}
	return &Aggregator{opts: opts}, nil
}

// Assemble adjusts, sorts, and truncates the pair statistics into the final
// table. The input order is the pair enumeration order and serves as the
// documented stable tie-break. Self-pairs never survive.
func (a *Aggregator) Assemble(stats []diffcor.PairStatistic) []diffcor.PairStatistic {
	rows := make([]diffcor.PairStatistic, 0, len(stats))
	for _, s := range stats {
		if s.VariableA == s.VariableB {
			continue
		}
		rows = append(rows, s)
	}

	switch a.opts.Adjust {
	case diffcor.AdjustBH, diffcor.AdjustBY:
		pvals := make([]float64, len(rows))
		for i, r := range rows {
			pvals[i] = r.PValDiff
		}
		qs := adjustPValues(pvals, a.opts.Adjust)
		for i := range rows {
			rows[i].QValue = qs[i]
		}
	case diffcor.AdjustPermutation:
		// Empirical p and q-values were already computed by the
		// permutation engine; nothing to recompute here.
	}

	if a.opts.Adjust == diffcor.AdjustPermutation {
		// Most significant empirical results first; undefined last.
		sort.SliceStable(rows, func(i, j int) bool {
			return lessAscending(empiricalKey(rows[i]), empiricalKey(rows[j]))
		})
	} else {
		// Largest |zDiff| first; undefined last.
		sort.SliceStable(rows, func(i, j int) bool {
			return lessDescending(math.Abs(rows[i].ZDiff), math.Abs(rows[j].ZDiff))
		})
	}

	if a.opts.SelectCount != SelectAll && a.opts.SelectCount < len(rows) {
		rows = rows[:a.opts.SelectCount]
	}
	return rows
}

// empiricalKey prefers the q-value and falls back to the empirical p-value.
func empiricalKey(s diffcor.PairStatistic) float64 {
	if !math.IsNaN(s.QValue) {
		return s.QValue
	}
	return s.EmpiricalP
}

// lessAscending orders ascending with NaN sorted to the end.
func lessAscending(x, y float64) bool {
	if math.IsNaN(x) {
		return false
	}
	if math.IsNaN(y) {
		return true
	}
	return x < y
}

// lessDescending orders descending with NaN sorted to the end.
func lessDescending(x, y float64) bool {
	if math.IsNaN(x) {
		return false
	}
	if math.IsNaN(y) {
		return true
	}
	return x > y
}
