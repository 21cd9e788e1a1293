package matrix

import (
	"fmt"

	"godiffcor/domain/core"
)

// DesignMatrix assigns samples to named conditions with a 0/1 indicator.
// Immutable once constructed.
type DesignMatrix struct {
	samples    []core.SampleKey
	conditions []string
	indicator  [][]int // rows=samples, cols=conditions
	condIndex  map[string]int
}

// NewDesignMatrix validates and constructs a design matrix. Indicator cells
// must be 0 or 1.
func NewDesignMatrix(samples []core.SampleKey, conditions []string, indicator [][]int) (*DesignMatrix, error) {
	if len(indicator) != len(samples) {
		return nil, core.NewShapeError("indicator row count does not match sample count")
	}
	condIndex := make(map[string]int, len(conditions))
	for j, c := range conditions {
		if _, dup := condIndex[c]; dup {
			return nil, core.NewShapeError(fmt.Sprintf("duplicate condition %q", c))
		}
		condIndex[c] = j
	}
	for i, row := range indicator {
		if len(row) != len(conditions) {
			return nil, core.NewShapeError(fmt.Sprintf("indicator row %d length does not match condition count", i))
		}
		for j, cell := range row {
			if cell != 0 && cell != 1 {
				return nil, core.NewShapeError(fmt.Sprintf("indicator cell [%d][%d] must be 0 or 1", i, j))
			}
		}
	}

	samps := make([]core.SampleKey, len(samples))
	copy(samps, samples)
	conds := make([]string, len(conditions))
	copy(conds, conditions)
	ind := make([][]int, len(indicator))
	for i, row := range indicator {
		ind[i] = make([]int, len(row))
		copy(ind[i], row)
	}

	return &DesignMatrix{
		samples:    samps,
		conditions: conds,
		indicator:  ind,
		condIndex:  condIndex,
	}, nil
}

// Samples returns the ordered sample identifiers.
func (d *DesignMatrix) Samples() []core.SampleKey {
	out := make([]core.SampleKey, len(d.samples))
	copy(out, d.samples)
	return out
}

// Conditions returns the ordered condition names.
func (d *DesignMatrix) Conditions() []string {
	out := make([]string, len(d.conditions))
	copy(out, d.conditions)
	return out
}

// SampleCount returns the number of samples (rows).
func (d *DesignMatrix) SampleCount() int {
	return len(d.samples)
}

// HasCondition reports whether the named condition exists.
func (d *DesignMatrix) HasCondition(name string) bool {
	_, ok := d.condIndex[name]
	return ok
}

// SampleIndices returns the column indexes (into the expression matrix) of
// the samples assigned to the named condition, in sample order.
func (d *DesignMatrix) SampleIndices(condition string) ([]int, error) {
	j, ok := d.condIndex[condition]
	if !ok {
		return nil, core.NewConditionError(condition)
	}
	var out []int
	for i, row := range d.indicator {
		if row[j] == 1 {
			out = append(out, i)
		}
	}
	return out, nil
}

// ValidateComparison checks that the two named conditions exist, are
// distinct, and that no sample is assigned to both. Each permutation and the
// observed run rely on this exclusivity.
func (d *DesignMatrix) ValidateComparison(condA, condB string) error {
	if condA == condB {
		return core.NewConfigurationError(fmt.Sprintf("conditions must differ, both are %q", condA))
	}
	ja, ok := d.condIndex[condA]
	if !ok {
		return core.NewConditionError(condA)
	}
	jb, ok := d.condIndex[condB]
	if !ok {
		return core.NewConditionError(condB)
	}
	for i, row := range d.indicator {
		if row[ja] == 1 && row[jb] == 1 {
			return core.NewShapeError(fmt.Sprintf("sample %s assigned to both %q and %q", d.samples[i], condA, condB))
		}
	}
	return nil
}
