package diffz

import (
	"math"
	"testing"

	"godiffcor/domain/diffcor"
	"godiffcor/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDifferencer_CeilingResolution(t *testing.T) {
	assert.Equal(t, DefaultCeiling, NewDifferencer(0).Ceiling())
	assert.Equal(t, DefaultCeiling, NewDifferencer(1).Ceiling())
	assert.Equal(t, DefaultCeiling, NewDifferencer(-0.5).Ceiling())
	assert.Equal(t, 0.95, NewDifferencer(0.95).Ceiling())
}

func TestZDiff_IdenticalCorrelations(t *testing.T) {
	d := NewDifferencer(0)
	z, p := d.ZDiff(0.6, 20, 0.6, 20)
	assert.InDelta(t, 0, z, 1e-12)
	assert.InDelta(t, 1, p, 1e-12)
}

func TestZDiff_ReferenceValue(t *testing.T) {
	// z = (atanh(0.8) - atanh(0.2)) / sqrt(1/27 + 1/27)
	d := NewDifferencer(0)
	z, p := d.ZDiff(0.8, 30, 0.2, 30)
	want := (math.Atanh(0.8) - math.Atanh(0.2)) / math.Sqrt(2.0/27.0)
	assert.InDelta(t, want, z, 1e-12)
	assert.Less(t, p, 0.05)
	assert.Greater(t, p, 0.0)
}

func TestZDiff_SignFollowsDirection(t *testing.T) {
	d := NewDifferencer(0)
	z, _ := d.ZDiff(0.9, 20, -0.9, 20)
	assert.Greater(t, z, 0.0)
	z, _ = d.ZDiff(-0.9, 20, 0.9, 20)
	assert.Less(t, z, 0.0)
}

func TestZDiff_CeilingClampsPerfectCorrelation(t *testing.T) {
	d := NewDifferencer(0)

	// atanh(1) is +Inf; the ceiling keeps the statistic finite.
	z, p := d.ZDiff(1, 20, 0, 20)
	require.False(t, math.IsInf(z, 0))
	want := math.Atanh(DefaultCeiling) / math.Sqrt(2.0/17.0)
	assert.InDelta(t, want, z, 1e-12)
	assert.False(t, math.IsNaN(p))

	// Magnitudes already inside the ceiling pass through untouched.
	zIn, _ := d.ZDiff(0.5, 20, 0, 20)
	wantIn := math.Atanh(0.5) / math.Sqrt(2.0/17.0)
	assert.InDelta(t, wantIn, zIn, 1e-12)
}

func TestZDiff_UndefinedInputs(t *testing.T) {
	d := NewDifferencer(0)
	cases := []struct {
		name   string
		rA, rB float64
		nA, nB int
	}{
		{"nan coefficient A", math.NaN(), 0.5, 20, 20},
		{"nan coefficient B", 0.5, math.NaN(), 20, 20},
		{"overlap A at boundary", 0.5, 0.5, 3, 20},
		{"overlap B at boundary", 0.5, 0.5, 20, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			z, p := d.ZDiff(tc.rA, tc.nA, tc.rB, tc.nB)
			assert.True(t, math.IsNaN(z))
			assert.True(t, math.IsNaN(p))
		})
	}

	// n = 4 is the smallest defined overlap.
	z, _ := d.ZDiff(0.5, 4, 0.5, 4)
	assert.False(t, math.IsNaN(z))
}

func TestDiff_AssemblesPairStatistics(t *testing.T) {
	variables := testkit.VariableKeys(3)
	condA := diffcor.NewConditionResult("A", variables)
	condB := diffcor.NewConditionResult("B", variables)
	condA.SetPair(0, 1, 0.9, 20, 0.001)
	condB.SetPair(0, 1, 0.1, 20, 0.6)

	d := NewDifferencer(0)
	pairs := []diffcor.Pair{{I: 0, J: 1}, {I: 0, J: 2}}
	stats := d.Diff(condA, condB, pairs)
	require.Len(t, stats, 2)

	first := stats[0]
	assert.Equal(t, variables[0], first.VariableA)
	assert.Equal(t, variables[1], first.VariableB)
	assert.Equal(t, 0.9, first.CorrA)
	assert.Equal(t, 0.1, first.CorrB)
	assert.Equal(t, 0.001, first.PValA)
	assert.Equal(t, 20, first.NA)
	assert.Greater(t, first.ZDiff, 0.0)
	assert.True(t, first.Defined())
	assert.True(t, math.IsNaN(first.EmpiricalP))
	assert.True(t, math.IsNaN(first.QValue))

	// The untouched pair stays undefined end to end.
	assert.False(t, stats[1].Defined())
}

func TestZDiff_FisherTransformRoundTrip(t *testing.T) {
	for _, r := range []float64{-0.8, -0.3, 0, 0.3, 0.8} {
		assert.InDelta(t, r, math.Tanh(math.Atanh(r)), 1e-12)
	}
}
