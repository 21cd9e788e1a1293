package aggregate

import (
	"math"
	"sort"

	"godiffcor/domain/diffcor"
)

// adjustPValues applies a step-up multiple-testing correction to the defined
// p-values and returns the adjusted values aligned to the input. NaN entries
// stay NaN and do not count toward the number of tests.
func adjustPValues(pvals []float64, method diffcor.AdjustMethod) []float64 {
	type ranked struct {
		p   float64
		idx int
	}
	defined := make([]ranked, 0, len(pvals))
	for i, p := range pvals {
		if !math.IsNaN(p) {
			defined = append(defined, ranked{p: p, idx: i})
		}
	}
	out := make([]float64, len(pvals))
	for i := range out {
		out[i] = math.NaN()
	}
	m := len(defined)
	if m == 0 {
		return out
	}

	sort.SliceStable(defined, func(a, b int) bool { return defined[a].p < defined[b].p })

	// BY scales the BH factor by the harmonic number, which keeps the
	// procedure valid under arbitrary dependence.
	scale := 1.0
	if method == diffcor.AdjustBY {
		scale = harmonic(m)
	}

	minQ := math.Inf(1)
	for i := m - 1; i >= 0; i-- {
		q := defined[i].p * scale * float64(m) / float64(i+1)
		if q < minQ {
			minQ = q
		}
		v := minQ
		if v > 1 {
			v = 1
		}
		out[defined[i].idx] = v
	}
	return out
}

func harmonic(m int) float64 {
	h := 0.0
	for i := 1; i <= m; i++ {
		h += 1 / float64(i)
	}
	return h
}
