package matrix

import (
	"math"
	"testing"

	"godiffcor/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vars(names ...string) []core.VariableKey {
	out := make([]core.VariableKey, len(names))
	for i, n := range names {
		out[i] = core.VariableKey(n)
	}
	return out
}

func samples(names ...string) []core.SampleKey {
	out := make([]core.SampleKey, len(names))
	for i, n := range names {
		out[i] = core.SampleKey(n)
	}
	return out
}

func TestNewExpressionMatrix_Validation(t *testing.T) {
	t.Run("duplicate variable", func(t *testing.T) {
		_, err := NewExpressionMatrix(
			vars("g1", "g1"),
			samples("s1", "s2"),
			[][]float64{{1, 2}, {3, 4}},
		)
		require.Error(t, err)
		assert.True(t, core.IsInputShapeError(err))
	})

	t.Run("ragged rows", func(t *testing.T) {
		_, err := NewExpressionMatrix(
			vars("g1", "g2"),
			samples("s1", "s2"),
			[][]float64{{1, 2}, {3}},
		)
		require.Error(t, err)
		assert.True(t, core.IsInputShapeError(err))
	})

	t.Run("row count mismatch", func(t *testing.T) {
		_, err := NewExpressionMatrix(
			vars("g1", "g2"),
			samples("s1"),
			[][]float64{{1}},
		)
		require.Error(t, err)
	})
}

func TestExpressionMatrix_Immutability(t *testing.T) {
	data := [][]float64{{1, 2}, {3, 4}}
	m, err := NewExpressionMatrix(vars("g1", "g2"), samples("s1", "s2"), data)
	require.NoError(t, err)

	// Mutating the source slice must not affect the matrix.
	data[0][0] = 99
	assert.Equal(t, 1.0, m.Row(0)[0])
}

func TestExpressionMatrix_Subset(t *testing.T) {
	m, err := NewExpressionMatrix(vars("g1"), samples("s1", "s2", "s3"), [][]float64{{10, 20, 30}})
	require.NoError(t, err)

	got := m.Subset(0, []int{2, 0})
	assert.Equal(t, []float64{30, 10}, got)

	// Out-of-range columns read as missing.
	got = m.Subset(0, []int{1, 5})
	assert.Equal(t, 20.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
}

func TestExpressionMatrix_MissingRate(t *testing.T) {
	m, err := NewExpressionMatrix(vars("g1"), samples("s1", "s2", "s3", "s4"),
		[][]float64{{1, math.NaN(), 3, math.NaN()}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.MissingRate(0), 1e-12)
}

func TestNewDesignMatrix_Validation(t *testing.T) {
	t.Run("non-binary indicator", func(t *testing.T) {
		_, err := NewDesignMatrix(samples("s1"), []string{"A"}, [][]int{{2}})
		require.Error(t, err)
		assert.True(t, core.IsInputShapeError(err))
	})

	t.Run("row length mismatch", func(t *testing.T) {
		_, err := NewDesignMatrix(samples("s1"), []string{"A", "B"}, [][]int{{1}})
		require.Error(t, err)
	})

	t.Run("duplicate condition", func(t *testing.T) {
		_, err := NewDesignMatrix(samples("s1"), []string{"A", "A"}, [][]int{{1, 0}})
		require.Error(t, err)
	})
}

func TestDesignMatrix_SampleIndices(t *testing.T) {
	d, err := NewDesignMatrix(
		samples("s1", "s2", "s3", "s4"),
		[]string{"A", "B"},
		[][]int{{1, 0}, {0, 1}, {1, 0}, {0, 1}},
	)
	require.NoError(t, err)

	idxA, err := d.SampleIndices("A")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, idxA)

	idxB, err := d.SampleIndices("B")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, idxB)

	_, err = d.SampleIndices("C")
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestDesignMatrix_ValidateComparison(t *testing.T) {
	d, err := NewDesignMatrix(
		samples("s1", "s2"),
		[]string{"A", "B"},
		[][]int{{1, 0}, {0, 1}},
	)
	require.NoError(t, err)

	assert.NoError(t, d.ValidateComparison("A", "B"))
	assert.Error(t, d.ValidateComparison("A", "A"))
	assert.Error(t, d.ValidateComparison("A", "missing"))

	// A sample assigned to both compared conditions is a shape defect.
	overlapping, err := NewDesignMatrix(
		samples("s1", "s2"),
		[]string{"A", "B"},
		[][]int{{1, 1}, {0, 1}},
	)
	require.NoError(t, err)
	err = overlapping.ValidateComparison("A", "B")
	require.Error(t, err)
	assert.True(t, core.IsInputShapeError(err))
}
