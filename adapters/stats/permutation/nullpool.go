package permutation

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// refPool is a streaming reference pool: it counts how many pooled permuted
// magnitudes meet or exceed each observed magnitude without ever retaining
// the permuted values themselves. Memory is bounded by the number of
// observed statistics, not by observed x permutations.
//
// The counting trick: observed magnitudes are sorted ascending; each pooled
// value |v| increments a histogram bucket at the upper-bound insertion index
// of |v|, so the exceed-count for observed rank k is the suffix sum of
// buckets above k.
type refPool struct {
	sorted []float64 // observed |statistic|, ascending, finite only
	hist   []int64   // len(sorted)+1 buckets
	total  int64     // finite pooled values seen
}

func newRefPool(observedAbs []float64) *refPool {
	sorted := make([]float64, 0, len(observedAbs))
	for _, v := range observedAbs {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	return &refPool{
		sorted: sorted,
		hist:   make([]int64, len(sorted)+1),
	}
}

// add pools one permuted magnitude. NaN values are excluded explicitly; they
// never count as zero.
func (p *refPool) add(abs float64) {
	if math.IsNaN(abs) {
		return
	}
	// Number of observed magnitudes <= abs.
	u := sort.Search(len(p.sorted), func(i int) bool { return p.sorted[i] > abs })
	p.hist[u]++
	p.total++
}

// fresh returns an empty pool sharing this pool's observed threshold array.
// Workers reduce into a fresh pool without locking, then merge.
func (p *refPool) fresh() *refPool {
	return &refPool{
		sorted: p.sorted,
		hist:   make([]int64, len(p.sorted)+1),
	}
}

// merge folds another pool's counts into this one. Both must share the same
// observed threshold array. The reduction is associative and commutative.
func (p *refPool) merge(other *refPool) {
	for i, c := range other.hist {
		p.hist[i] += c
	}
	p.total += other.total
}

// exceedCounts returns, for each sorted observed rank, the number of pooled
// values whose magnitude meets or exceeds it.
func (p *refPool) exceedCounts() []int64 {
	counts := make([]int64, len(p.sorted))
	var acc int64
	for k := len(p.sorted) - 1; k >= 0; k-- {
		acc += p.hist[k+1]
		counts[k] = acc
	}
	return counts
}

// empiricalP computes the add-one empirical p-value for the observed
// magnitude at sorted rank k.
func (p *refPool) empiricalP(counts []int64, k int) float64 {
	return float64(counts[k]+1) / float64(p.total+1)
}

// rank locates an observed magnitude in the sorted threshold array. Tied
// magnitudes share identical exceed counts, so any index in the tie run is
// equivalent.
func (p *refPool) rank(abs float64) int {
	return sort.SearchFloat64s(p.sorted, abs)
}

// qValues derives q-values from empirical p-values by the monotone step-up
// procedure, optionally scaling by an estimated proportion of true nulls.
// NaN p-values keep NaN q-values.
func qValues(pvals []float64, estimatePi0 bool) []float64 {
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

	pi0 := 1.0
	if estimatePi0 {
		sortedP := make([]float64, m)
		for i, r := range defined {
			sortedP[i] = r.p
		}
		pi0 = estimatePi0FromP(sortedP)
	}

	// Step-up with a running minimum from the largest rank down.
	minQ := math.Inf(1)
	qs := make([]float64, m)
	for i := m - 1; i >= 0; i-- {
		q := pi0 * defined[i].p * float64(m) / float64(i+1)
		if q < minQ {
			minQ = q
		}
		if minQ > 1 {
			qs[i] = 1
		} else {
			qs[i] = minQ
		}
	}
	for i, r := range defined {
		out[r.idx] = qs[i]
	}
	return out
}

// estimatePi0FromP uses the lambda = 0.5 census: the share of p-values above
// 0.5, rescaled by the width of that interval.
func estimatePi0FromP(pvals []float64) float64 {
	above := 0
	for _, p := range pvals {
		if p > 0.5 {
			above++
		}
	}
	pi0 := float64(above) / (0.5 * float64(len(pvals)))
	if pi0 > 1 {
		return 1
	}
	if pi0 <= 0 {
		// Degenerate census; fall back to no scaling.
		return 1
	}
	return pi0
}

// center reduces a batch of values to its median or mean, skipping NaN.
// Returns NaN for an empty batch.
func center(values []float64, c Center) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	var out float64
	var err error
	if c == CenterMean {
		out, err = stats.Mean(finite)
	} else {
		out, err = stats.Median(finite)
	}
	if err != nil {
		return math.NaN()
	}
	return out
}
