package correlation

import "math"

// pearsonStrategy computes the linear (Pearson) correlation coefficient.
type pearsonStrategy struct{}

func (pearsonStrategy) coefficient(x, y []float64) float64 {
	n := float64(len(x))
	if n < 2 {
		return math.NaN()
	}

	sumX, sumY := 0.0, 0.0
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	numerator := 0.0
	sumXX := 0.0
	sumYY := 0.0
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	if sumXX == 0 || sumYY == 0 {
		// Zero variance: the coefficient is undefined, not zero.
		return math.NaN()
	}

	r := numerator / math.Sqrt(sumXX*sumYY)

	// Clamp to [-1, 1] due to floating point precision
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
