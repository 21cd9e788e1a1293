// Package matrix provides the immutable input value objects for
// differential correlation analysis: the expression matrix (variables x
// samples, NaN marks missing) and the binary design matrix (samples x
// conditions).
package matrix

import (
	"math"

	"godiffcor/domain/core"
)

// ExpressionMatrix is the canonical numeric input for all correlation
// computation: rows are variables, columns are samples. Missing cells are
// NaN. Immutable once constructed.
type ExpressionMatrix struct {
	variables []core.VariableKey
	samples   []core.SampleKey
	data      [][]float64
	varIndex  map[core.VariableKey]int
}

// NewExpressionMatrix validates and constructs an expression matrix.
// Variable identifiers must be unique and every row must have one value per
// sample.
func NewExpressionMatrix(variables []core.VariableKey, samples []core.SampleKey, data [][]float64) (*ExpressionMatrix, error) {
	if len(data) != len(variables) {
		return nil, core.NewShapeError("row count does not match variable count")
	}
	varIndex := make(map[core.VariableKey]int, len(variables))
	for i, v := range variables {
		if _, dup := varIndex[v]; dup {
			return nil, core.NewDuplicateVariableError(v.String())
		}
		varIndex[v] = i
	}
	for i, row := range data {
		if len(row) != len(samples) {
			return nil, core.NewShapeError("row " + variables[i].String() + " length does not match sample count")
		}
	}

	// Defensive copy so the caller cannot mutate the matrix afterwards.
	vars := make([]core.VariableKey, len(variables))
	copy(vars, variables)
	samps := make([]core.SampleKey, len(samples))
	copy(samps, samples)
	rows := make([][]float64, len(data))
	for i, row := range data {
		rows[i] = make([]float64, len(row))
		copy(rows[i], row)
	}

	return &ExpressionMatrix{
		variables: vars,
		samples:   samps,
		data:      rows,
		varIndex:  varIndex,
	}, nil
}

// Variables returns the ordered variable identifiers.
func (m *ExpressionMatrix) Variables() []core.VariableKey {
	out := make([]core.VariableKey, len(m.variables))
	copy(out, m.variables)
	return out
}

// Samples returns the ordered sample identifiers.
func (m *ExpressionMatrix) Samples() []core.SampleKey {
	out := make([]core.SampleKey, len(m.samples))
	copy(out, m.samples)
	return out
}

// VariableCount returns the number of variables (rows).
func (m *ExpressionMatrix) VariableCount() int {
	return len(m.variables)
}

// SampleCount returns the number of samples (columns).
func (m *ExpressionMatrix) SampleCount() int {
	return len(m.samples)
}

// VariableIndex returns the row index for a variable key.
func (m *ExpressionMatrix) VariableIndex(v core.VariableKey) (int, bool) {
	i, ok := m.varIndex[v]
	return i, ok
}

// Row returns the values of one variable across all samples. The returned
// slice is the matrix's own storage; callers must not modify it.
func (m *ExpressionMatrix) Row(i int) []float64 {
	return m.data[i]
}

// Subset returns the values of variable row i at the given sample columns.
// Out-of-range columns are treated as missing.
func (m *ExpressionMatrix) Subset(i int, samples []int) []float64 {
	row := m.data[i]
	out := make([]float64, len(samples))
	for k, s := range samples {
		if s < 0 || s >= len(row) {
			out[k] = math.NaN()
			continue
		}
		out[k] = row[s]
	}
	return out
}

// MissingRate reports the fraction of missing cells in variable row i.
func (m *ExpressionMatrix) MissingRate(i int) float64 {
	row := m.data[i]
	if len(row) == 0 {
		return 0
	}
	missing := 0
	for _, v := range row {
		if math.IsNaN(v) {
			missing++
		}
	}
	return float64(missing) / float64(len(row))
}

// Fingerprint produces a deterministic hash over identifiers and shape, used
// for run manifests. Cell values are excluded deliberately: the fingerprint
// identifies the dataset layout, not its contents.
func (m *ExpressionMatrix) Fingerprint() core.Hash {
	fields := make([]string, 0, len(m.variables)+len(m.samples))
	for _, v := range m.variables {
		fields = append(fields, v.String())
	}
	for _, s := range m.samples {
		fields = append(fields, s.String())
	}
	return core.HashFields(fields...)
}
