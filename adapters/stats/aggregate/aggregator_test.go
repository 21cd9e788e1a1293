package aggregate

import (
	"errors"
	"math"
	"testing"

	"godiffcor/domain/core"
	"godiffcor/domain/diffcor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(a, b string, zDiff, pDiff float64) diffcor.PairStatistic {
	return diffcor.PairStatistic{
		VariableA:  core.VariableKey(a),
		VariableB:  core.VariableKey(b),
		ZDiff:      zDiff,
		PValDiff:   pDiff,
		EmpiricalP: math.NaN(),
		QValue:     math.NaN(),
	}
}

func TestNewAggregator_Validation(t *testing.T) {
	t.Run("zero select count", func(t *testing.T) {
		_, err := NewAggregator(Options{SelectCount: 0})
		assert.True(t, errors.Is(err, core.ErrBadSelectCount))
	})

	t.Run("negative select count other than the sentinel", func(t *testing.T) {
		_, err := NewAggregator(Options{SelectCount: -2})
		assert.True(t, errors.Is(err, core.ErrBadSelectCount))
	})

	t.Run("select all sentinel", func(t *testing.T) {
		_, err := NewAggregator(Options{SelectCount: SelectAll})
		assert.NoError(t, err)
	})

	t.Run("unknown adjustment", func(t *testing.T) {
		_, err := NewAggregator(Options{SelectCount: SelectAll, Adjust: "bonferroni"})
		require.Error(t, err)
		assert.True(t, core.IsConfigurationError(err))
	})
}

func TestAssemble_SortByAbsoluteZDiff(t *testing.T) {
	agg, err := NewAggregator(Options{SelectCount: SelectAll})
	require.NoError(t, err)

	rows := agg.Assemble([]diffcor.PairStatistic{
		row("g1", "g2", 1.0, 0.3),
		row("g1", "g3", -3.0, 0.001),
		row("g2", "g3", 2.0, 0.04),
		row("g2", "g4", math.NaN(), math.NaN()),
	})
	require.Len(t, rows, 4)
	assert.Equal(t, core.VariableKey("g1"), rows[0].VariableA)
	assert.Equal(t, core.VariableKey("g3"), rows[0].VariableB)
	assert.Equal(t, -3.0, rows[0].ZDiff)
	assert.Equal(t, 2.0, rows[1].ZDiff)
	assert.Equal(t, 1.0, rows[2].ZDiff)
	assert.True(t, math.IsNaN(rows[3].ZDiff), "undefined rows sink to the bottom")
}

func TestAssemble_StableTies(t *testing.T) {
	agg, err := NewAggregator(Options{SelectCount: SelectAll})
	require.NoError(t, err)

	// Equal magnitudes keep their enumeration order.
	rows := agg.Assemble([]diffcor.PairStatistic{
		row("g1", "g2", 2.0, 0.01),
		row("g1", "g3", -2.0, 0.01),
		row("g2", "g3", 2.0, 0.01),
	})
	assert.Equal(t, core.VariableKey("g2"), rows[0].VariableB)
	assert.Equal(t, core.VariableKey("g3"), rows[1].VariableB)
	assert.Equal(t, core.VariableKey("g2"), rows[2].VariableA)
}

func TestAssemble_Truncation(t *testing.T) {
	agg, err := NewAggregator(Options{SelectCount: 2})
	require.NoError(t, err)

	rows := agg.Assemble([]diffcor.PairStatistic{
		row("g1", "g2", 1.0, 0.3),
		row("g1", "g3", -3.0, 0.001),
		row("g2", "g3", 2.0, 0.04),
	})
	require.Len(t, rows, 2)
	assert.Equal(t, -3.0, rows[0].ZDiff)
	assert.Equal(t, 2.0, rows[1].ZDiff)

	// A count beyond the table returns everything.
	agg, err = NewAggregator(Options{SelectCount: 50})
	require.NoError(t, err)
	rows = agg.Assemble([]diffcor.PairStatistic{row("g1", "g2", 1.0, 0.3)})
	assert.Len(t, rows, 1)
}

func TestAssemble_DropsSelfPairs(t *testing.T) {
	agg, err := NewAggregator(Options{SelectCount: SelectAll})
	require.NoError(t, err)

	rows := agg.Assemble([]diffcor.PairStatistic{
		row("g1", "g1", 10.0, 0.0001),
		row("g1", "g2", 1.0, 0.3),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, core.VariableKey("g2"), rows[0].VariableB)
}

func TestAssemble_BHAdjustment(t *testing.T) {
	agg, err := NewAggregator(Options{SelectCount: SelectAll, Adjust: diffcor.AdjustBH})
	require.NoError(t, err)

	rows := agg.Assemble([]diffcor.PairStatistic{
		row("g1", "g2", 3.0, 0.01),
		row("g1", "g3", 2.0, 0.04),
		row("g2", "g3", 1.0, 0.03),
		row("g2", "g4", 0.5, 0.5),
	})
	require.Len(t, rows, 4)
	byPair := map[string]float64{}
	for _, r := range rows {
		byPair[string(r.VariableA)+":"+string(r.VariableB)] = r.QValue
	}
	assert.InDelta(t, 0.04, byPair["g1:g2"], 1e-12)
	assert.InDelta(t, 0.04*4.0/3.0, byPair["g1:g3"], 1e-12)
	assert.InDelta(t, 0.04*4.0/3.0, byPair["g2:g3"], 1e-12)
	assert.InDelta(t, 0.5, byPair["g2:g4"], 1e-12)
}

func TestAssemble_BYAdjustment(t *testing.T) {
	agg, err := NewAggregator(Options{SelectCount: SelectAll, Adjust: diffcor.AdjustBY})
	require.NoError(t, err)

	rows := agg.Assemble([]diffcor.PairStatistic{
		row("g1", "g2", 3.0, 0.01),
		row("g1", "g3", 2.0, 0.2),
	})
	byPair := map[string]float64{}
	for _, r := range rows {
		byPair[string(r.VariableA)+":"+string(r.VariableB)] = r.QValue
	}
	// Harmonic(2) = 1.5 inflates the BH values.
	assert.InDelta(t, 0.01*2*1.5, byPair["g1:g2"], 1e-12)
	assert.InDelta(t, 0.2*1.5, byPair["g1:g3"], 1e-12)
}

func TestAssemble_PermutationOrdering(t *testing.T) {
	agg, err := NewAggregator(Options{SelectCount: SelectAll, Adjust: diffcor.AdjustPermutation})
	require.NoError(t, err)

	a := row("g1", "g2", 1.0, 0.3)
	a.EmpiricalP, a.QValue = 0.2, 0.3
	b := row("g1", "g3", 3.0, 0.001)
	b.EmpiricalP, b.QValue = 0.01, 0.02
	c := row("g2", "g3", 2.0, 0.04)
	c.EmpiricalP = 0.05 // q undefined: the key falls back to empirical p
	d := row("g2", "g4", math.NaN(), math.NaN())

	rows := agg.Assemble([]diffcor.PairStatistic{a, b, c, d})
	require.Len(t, rows, 4)
	assert.Equal(t, core.VariableKey("g3"), rows[0].VariableB)
	assert.Equal(t, 0.05, rows[1].EmpiricalP)
	assert.Equal(t, 0.3, rows[2].QValue)
	assert.True(t, math.IsNaN(rows[3].EmpiricalP))
}

func TestAdjustPValues_NaNExcludedFromTestCount(t *testing.T) {
	qs := adjustPValues([]float64{0.01, math.NaN(), 0.04}, diffcor.AdjustBH)
	// m = 2, not 3.
	assert.InDelta(t, 0.02, qs[0], 1e-12)
	assert.True(t, math.IsNaN(qs[1]))
	assert.InDelta(t, 0.04, qs[2], 1e-12)
}

func TestAdjustPValues_CapsAtOne(t *testing.T) {
	qs := adjustPValues([]float64{0.9, 0.95}, diffcor.AdjustBY)
	for _, q := range qs {
		assert.LessOrEqual(t, q, 1.0)
	}
}
