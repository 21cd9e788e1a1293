// Package diffcor holds the value records of differential correlation
// analysis: method enums, per-condition correlation results, per-pair
// statistics, classification labels, and the run manifest. Engines under
// adapters/stats produce these records; the records never reference the
// engines back.
package diffcor

import (
	"fmt"
	"math"

	"godiffcor/domain/core"
)

// MinPValue is the smallest reported p-value. Values below it are floored to
// exactly this constant rather than a smaller number; the precision loss is
// deliberate and carries into all outputs.
const MinPValue = 1e-16

// FloorPValue applies the reporting floor. NaN passes through unchanged.
func FloorPValue(p float64) float64 {
	if math.IsNaN(p) {
		return p
	}
	if p < MinPValue {
		return MinPValue
	}
	if p > 1 {
		return 1
	}
	return p
}

// ============================================================================
// METHOD ENUMS
// ============================================================================

// CorrelationMethod selects the pairwise correlation computation.
type CorrelationMethod string

const (
	MethodPearson  CorrelationMethod = "pearson"
	MethodSpearman CorrelationMethod = "spearman"
)

// ParseCorrelationMethod resolves a method name once at the call boundary.
func ParseCorrelationMethod(s string) (CorrelationMethod, error) {
	switch CorrelationMethod(s) {
	case MethodPearson, MethodSpearman:
		return CorrelationMethod(s), nil
	}
	return "", core.NewConfigurationError(fmt.Sprintf("unknown correlation method %q", s))
}

// AdjustMethod selects how differential p-values are adjusted for multiple
// testing in the final table.
type AdjustMethod string

const (
	AdjustNone        AdjustMethod = "none"
	AdjustBH          AdjustMethod = "bh"          // Benjamini-Hochberg step-up
	AdjustBY          AdjustMethod = "by"          // Benjamini-Yekutieli, valid under dependence
	AdjustPermutation AdjustMethod = "permutation" // use empirical p / q-values already computed
)

// ParseAdjustMethod resolves an adjustment name once at the call boundary.
func ParseAdjustMethod(s string) (AdjustMethod, error) {
	switch AdjustMethod(s) {
	case AdjustNone, AdjustBH, AdjustBY, AdjustPermutation:
		return AdjustMethod(s), nil
	}
	return "", core.NewConfigurationError(fmt.Sprintf("unknown adjustment method %q", s))
}

// ============================================================================
// PAIR ENUMERATION
// ============================================================================

// Pair indexes two distinct variables by row position in the expression
// matrix, always with I < J.
type Pair struct {
	I int
	J int
}

// SplitMode controls which pairs a split-set restriction keeps.
type SplitMode string

const (
	SplitVersusRest  SplitMode = "split_vs_rest"  // exactly one endpoint in the split set
	SplitWithinSplit SplitMode = "split_vs_split" // both endpoints in the split set
)

// PairsFor enumerates variable pairs in first-encountered (row-major upper
// triangle) order. With an empty split set every unordered pair appears
// exactly once and no self-pairs are produced. This enumeration order is
// also the documented tie-break order for top-N selection.
func PairsFor(variables []core.VariableKey, split map[core.VariableKey]bool, mode SplitMode) []Pair {
	n := len(variables)
	var pairs []Pair
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if len(split) > 0 {
				inA, inB := split[variables[i]], split[variables[j]]
				switch mode {
				case SplitWithinSplit:
					if !inA || !inB {
						continue
					}
				default: // SplitVersusRest
					if inA == inB {
						continue
					}
				}
			}
			pairs = append(pairs, Pair{I: i, J: j})
		}
	}
	return pairs
}

// ============================================================================
// PER-CONDITION CORRELATION RESULT
// ============================================================================

// ConditionResult holds three parallel symmetric matrices over the selected
// variable set for one condition: coefficient, non-missing overlap count,
// and two-sided significance p-value. Ephemeral: recomputed per observed run
// and per permutation; only aggregated statistics outlive it.
type ConditionResult struct {
	Condition string
	Variables []core.VariableKey
	Corr      [][]float64
	NUsed     [][]int
	PValue    [][]float64
}

// NewConditionResult allocates a result with NaN coefficients and p-values
// and zero counts. Diagonal entries are left for the producer to fill.
func NewConditionResult(condition string, variables []core.VariableKey) *ConditionResult {
	n := len(variables)
	r := &ConditionResult{
		Condition: condition,
		Variables: variables,
		Corr:      make([][]float64, n),
		NUsed:     make([][]int, n),
		PValue:    make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		r.Corr[i] = make([]float64, n)
		r.NUsed[i] = make([]int, n)
		r.PValue[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			r.Corr[i][j] = math.NaN()
			r.PValue[i][j] = math.NaN()
		}
	}
	return r
}

// SetPair records a pair's statistics symmetrically.
func (r *ConditionResult) SetPair(i, j int, corr float64, n int, p float64) {
	r.Corr[i][j], r.Corr[j][i] = corr, corr
	r.NUsed[i][j], r.NUsed[j][i] = n, n
	r.PValue[i][j], r.PValue[j][i] = p, p
}

// ============================================================================
// PER-PAIR STATISTIC
// ============================================================================

// PairStatistic is the immutable per-pair record assembled from both
// conditions. Undefined numeric fields are NaN; they participate downstream
// only as explicit exclusions, never silently as zero.
type PairStatistic struct {
	VariableA core.VariableKey `json:"variable_a"`
	VariableB core.VariableKey `json:"variable_b"`

	CorrA float64 `json:"corr_a"`
	PValA float64 `json:"p_val_a"`
	NA    int     `json:"n_a"`

	CorrB float64 `json:"corr_b"`
	PValB float64 `json:"p_val_b"`
	NB    int     `json:"n_b"`

	ZDiff    float64 `json:"z_diff"`
	PValDiff float64 `json:"p_val_diff"`

	Class      ClassLabel `json:"class,omitempty"`
	EmpiricalP float64    `json:"empirical_p,omitempty"`
	QValue     float64    `json:"q_value,omitempty"`
}

// Defined reports whether the differential statistic exists for this pair.
func (s PairStatistic) Defined() bool {
	return !math.IsNaN(s.ZDiff)
}

// ============================================================================
// CLASSIFICATION
// ============================================================================

// Sign is the significance-gated direction of one condition's correlation.
type Sign string

const (
	SignPositive Sign = "+"
	SignNegative Sign = "-"
	SignZero     Sign = "0"
)

// ClassLabel is the ordered concatenation of condition-A and condition-B
// signs, one of the nine combinations ("+/+", "+/0", ..., "-/-"). Empty when
// the pair was not classified.
type ClassLabel string

// MakeClassLabel builds the label from two signs.
func MakeClassLabel(a, b Sign) ClassLabel {
	return ClassLabel(string(a) + "/" + string(b))
}

// AllClassLabels lists the nine possible labels in row-major sign order.
func AllClassLabels() []ClassLabel {
	signs := []Sign{SignPositive, SignZero, SignNegative}
	out := make([]ClassLabel, 0, 9)
	for _, a := range signs {
		for _, b := range signs {
			out = append(out, MakeClassLabel(a, b))
		}
	}
	return out
}

// ============================================================================
// GENE-LEVEL AND GLOBAL STATISTICS
// ============================================================================

// GeneStatistic is one variable's averaged differential correlation against
// all of its partners, with its permutation-derived false discovery estimate.
type GeneStatistic struct {
	Variable     core.VariableKey `json:"variable"`
	AvgZDiff     float64          `json:"avg_z_diff"`
	PairCount    int              `json:"pair_count"`
	EmpiricalFDR float64          `json:"empirical_fdr"`
}

// GlobalStatistic is the whole-dataset averaged differential correlation and
// its single empirical false-discovery value.
type GlobalStatistic struct {
	AvgZDiff     float64 `json:"avg_z_diff"`
	PairCount    int     `json:"pair_count"`
	EmpiricalFDR float64 `json:"empirical_fdr"`
	Permutations int     `json:"permutations"`
}

// ============================================================================
// RUN MANIFEST
// ============================================================================

// DegeneracyCode records why a pair's statistics are undefined.
type DegeneracyCode string

const (
	DegeneracyLowOverlap   DegeneracyCode = "LOW_OVERLAP"   // pairwise-complete n < 3
	DegeneracyZeroVariance DegeneracyCode = "ZERO_VARIANCE" // a constant variable over the overlap
	DegeneracySmallN       DegeneracyCode = "SMALL_N"       // overlap too small for Fisher z (n <= 3)
)

// AnalysisManifest captures the complete specification and outcome of one
// analysis run for reproducibility audits.
type AnalysisManifest struct {
	RunID      core.RunID        `json:"run_id"`
	ConditionA string            `json:"condition_a"`
	ConditionB string            `json:"condition_b"`
	Method     CorrelationMethod `json:"method"`
	Seed       int64             `json:"seed"`
	NPerm      int               `json:"n_perm"`

	TotalPairs      int                    `json:"total_pairs"`
	ClassifiedPairs int                    `json:"classified_pairs"`
	RejectionCounts map[DegeneracyCode]int `json:"rejection_counts"`

	RuntimeMs   int64          `json:"runtime_ms"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewAnalysisManifest creates a manifest with generated run ID.
func NewAnalysisManifest(condA, condB string, method CorrelationMethod, seed int64, nPerm int) *AnalysisManifest {
	return &AnalysisManifest{
		RunID:           core.RunID(core.NewID()),
		ConditionA:      condA,
		ConditionB:      condB,
		Method:          method,
		Seed:            seed,
		NPerm:           nPerm,
		RejectionCounts: make(map[DegeneracyCode]int),
		CreatedAt:       core.Now(),
	}
}
