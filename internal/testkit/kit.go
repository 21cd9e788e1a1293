// Package testkit generates deterministic synthetic datasets for the
// statistics packages' tests: expression matrices with known correlation
// structure, two-condition designs, and seeded missingness.
package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"godiffcor/domain/core"
	"godiffcor/domain/matrix"
)

// CorrelatedPair draws two length-n vectors whose population correlation is
// target. The sample correlation fluctuates around it, tighter as n grows.
func CorrelatedPair(n int, target float64, seed int64) (x, y []float64) {
	r := rand.New(rand.NewSource(seed))
	x = make([]float64, n)
	y = make([]float64, n)
	residual := math.Sqrt(1 - target*target)
	for i := 0; i < n; i++ {
		x[i] = r.NormFloat64()
		y[i] = target*x[i] + residual*r.NormFloat64()
	}
	return x, y
}

// VariableKeys produces gene-style identifiers g1..gN.
func VariableKeys(n int) []core.VariableKey {
	out := make([]core.VariableKey, n)
	for i := range out {
		out[i] = core.VariableKey(fmt.Sprintf("g%d", i+1))
	}
	return out
}

// SampleKeys produces sample identifiers s1..sN.
func SampleKeys(n int) []core.SampleKey {
	out := make([]core.SampleKey, n)
	for i := range out {
		out[i] = core.SampleKey(fmt.Sprintf("s%d", i+1))
	}
	return out
}

// RandomExpression builds a nVars x nSamples matrix of independent standard
// normal values.
func RandomExpression(nVars, nSamples int, seed int64) *matrix.ExpressionMatrix {
	r := rand.New(rand.NewSource(seed))
	data := make([][]float64, nVars)
	for i := range data {
		data[i] = make([]float64, nSamples)
		for j := range data[i] {
			data[i][j] = r.NormFloat64()
		}
	}
	m, err := matrix.NewExpressionMatrix(VariableKeys(nVars), SampleKeys(nSamples), data)
	if err != nil {
		panic(err)
	}
	return m
}

// TwoConditionDesign assigns the first nA samples to condition "A" and the
// next nB to condition "B".
func TwoConditionDesign(nA, nB int) *matrix.DesignMatrix {
	total := nA + nB
	indicator := make([][]int, total)
	for i := range indicator {
		if i < nA {
			indicator[i] = []int{1, 0}
		} else {
			indicator[i] = []int{0, 1}
		}
	}
	d, err := matrix.NewDesignMatrix(SampleKeys(total), []string{"A", "B"}, indicator)
	if err != nil {
		panic(err)
	}
	return d
}

// WithMissing returns a copy of values with approximately rate of them
// replaced by NaN, chosen by the seeded source.
func WithMissing(values []float64, rate float64, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, len(values))
	copy(out, values)
	for i := range out {
		if r.Float64() < rate {
			out[i] = math.NaN()
		}
	}
	return out
}

// DifferentialPair builds a two-variable matrix over nA+nB samples where the
// variables track each other exactly in condition A and are independent in
// condition B.
func DifferentialPair(nA, nB int, seed int64) *matrix.ExpressionMatrix {
	r := rand.New(rand.NewSource(seed))
	total := nA + nB
	x := make([]float64, total)
	y := make([]float64, total)
	for i := 0; i < total; i++ {
		x[i] = r.NormFloat64()
		if i < nA {
			y[i] = x[i]
		} else {
			y[i] = r.NormFloat64()
		}
	}
	m, err := matrix.NewExpressionMatrix(VariableKeys(2), SampleKeys(total), [][]float64{x, y})
	if err != nil {
		panic(err)
	}
	return m
}
