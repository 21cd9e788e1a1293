package correlation

import "sort"

// spearmanStrategy computes the rank-based (Spearman) correlation
// coefficient: Pearson's r over average-tied ranks. Ranking through the
// general formula rather than 1 - 6*sum(d^2)/... keeps tied observations
// exact.
type spearmanStrategy struct{}

func (spearmanStrategy) coefficient(x, y []float64) float64 {
	return pearsonStrategy{}.coefficient(ranks(x), ranks(y))
}

// ranks assigns 1-based ranks with ties resolved to their average rank.
func ranks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranked := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		// Average rank across the tie run [i, j].
		avg := (float64(i+1) + float64(j+1)) / 2
		for k := i; k <= j; k++ {
			ranked[order[k]] = avg
		}
		i = j + 1
	}
	return ranked
}
