// Package app orchestrates a complete differential correlation run: one
// observed correlation pass per condition, Fisher-z differencing, optional
// permutation resampling, classification, and final aggregation, with a
// manifest for reproducibility audits.
package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"godiffcor/adapters/stats/aggregate"
	"godiffcor/adapters/stats/classify"
	"godiffcor/adapters/stats/correlation"
	"godiffcor/adapters/stats/diffz"
	"godiffcor/adapters/stats/permutation"
	"godiffcor/domain/core"
	"godiffcor/domain/diffcor"
	"godiffcor/domain/matrix"
	"godiffcor/internal"
	apperrors "godiffcor/internal/errors"
)

// AnalysisRequest defines the inputs for one differential correlation
// analysis between two conditions.
type AnalysisRequest struct {
	Expression *matrix.ExpressionMatrix
	Design     *matrix.DesignMatrix
	ConditionA string
	ConditionB string

	Method    diffcor.CorrelationMethod // default pearson
	SplitSet  []core.VariableKey
	SplitMode diffcor.SplitMode
	Ceiling   float64 // correlation clamp before Fisher z; 0 resolves to 0.99

	Classify         bool
	CorrSigThreshold float64 // default 0.05
	DiffSigThreshold float64 // default 0.05

	NPerm       int
	Seed        int64
	Workers     int
	PermMode    permutation.Mode
	Center      permutation.Center
	EstimatePi0 bool

	Adjust      diffcor.AdjustMethod
	SelectCount int // 0 resolves to all pairs
}

// AnalysisResult is the assembled output of one run.
type AnalysisResult struct {
	Rows     []diffcor.PairStatistic
	Gene     []diffcor.GeneStatistic
	Global   *diffcor.GlobalStatistic
	Manifest *diffcor.AnalysisManifest
}

// AnalysisService runs differential correlation analyses. Each run carries
// its own engine configuration; the service holds no analysis state.
type AnalysisService struct {
	logger *internal.Logger
}

// NewAnalysisService creates the service.
func NewAnalysisService(logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{logger: logger}
}

// Validate fails fast on structural and configuration problems, before any
// computation starts.
func (r *AnalysisRequest) Validate() error {
	if r.Expression == nil || r.Design == nil {
		return apperrors.InvalidInput("expression and design matrices are required")
	}
	if r.Design.SampleCount() != r.Expression.SampleCount() {
		return core.NewSampleCountError(r.Design.SampleCount(), r.Expression.SampleCount())
	}
	if err := r.Design.ValidateComparison(r.ConditionA, r.ConditionB); err != nil {
		return err
	}
	if r.NPerm < 0 {
		return core.NewConfigurationError("nPerm must be non-negative")
	}
	mode := r.PermMode
	if (mode == permutation.ModeGene || mode == permutation.ModeGlobal) && r.NPerm == 0 {
		return fmt.Errorf("%w: %s mode", core.ErrPermutationsNeeded, mode)
	}
	if r.Adjust == diffcor.AdjustPermutation {
		if r.NPerm == 0 {
			return core.NewConfigurationError("permutation adjustment requires nPerm > 0")
		}
		if mode != "" && mode != permutation.ModePair {
			return core.NewConfigurationError("permutation adjustment requires pair-level permutation mode")
		}
	}
	if r.SelectCount < 0 && r.SelectCount != aggregate.SelectAll {
		return core.ErrBadSelectCount
	}
	for _, v := range r.SplitSet {
		if _, ok := r.Expression.VariableIndex(v); !ok {
			return core.NewConfigurationError(fmt.Sprintf("split variable %q not present in expression matrix", v))
		}
	}
	return nil
}

// Run executes the full analysis.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	startTime := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	corrEngine, err := correlation.NewEngine(correlation.Options{
		Method:    req.Method,
		SplitSet:  req.SplitSet,
		SplitMode: req.SplitMode,
	})
	if err != nil {
		return nil, err
	}
	differ := diffz.NewDifferencer(req.Ceiling)

	manifest := diffcor.NewAnalysisManifest(req.ConditionA, req.ConditionB, corrEngine.Method(), req.Seed, req.NPerm)
	s.logger.Info("analysis %s: %s vs %s, method=%s, nPerm=%d",
		manifest.RunID, req.ConditionA, req.ConditionB, corrEngine.Method(), req.NPerm)

	// Observed pass: one correlation result per condition.
	condA, err := corrEngine.Compute(req.Expression, req.Design, req.ConditionA)
	if err != nil {
		return nil, err
	}
	condB, err := corrEngine.Compute(req.Expression, req.Design, req.ConditionB)
	if err != nil {
		return nil, err
	}

	pairs := corrEngine.Pairs(req.Expression.Variables())
	stats := differ.Diff(condA, condB, pairs)
	manifest.TotalPairs = len(stats)
	countRejections(stats, manifest.RejectionCounts)

	result := &AnalysisResult{Manifest: manifest}

	if req.NPerm > 0 {
		permEngine, err := permutation.NewEngine(corrEngine, differ, permutation.Options{
			Mode:        req.PermMode,
			NPerm:       req.NPerm,
			Seed:        req.Seed,
			Workers:     req.Workers,
			Center:      req.Center,
			EstimatePi0: req.EstimatePi0,
		})
		if err != nil {
			return nil, err
		}
		permResult, err := permEngine.Run(ctx, req.Expression, req.Design, req.ConditionA, req.ConditionB, stats)
		if err != nil {
			return nil, apperrors.Wrap(err, "permutation run failed")
		}
		result.Gene = permResult.Gene
		result.Global = permResult.Global
		s.logger.Debug("analysis %s: pooled %d permuted statistics in %s mode",
			manifest.RunID, permResult.PooledCount, permResult.Mode)
	}

	if req.Classify {
		useEmpirical := req.NPerm > 0 && (req.PermMode == "" || req.PermMode == permutation.ModePair)
		classifier := classify.NewClassifier(req.CorrSigThreshold, req.DiffSigThreshold)
		manifest.ClassifiedPairs = classifier.Classify(stats, useEmpirical)
	}

	selectCount := req.SelectCount
	if selectCount == 0 {
		selectCount = aggregate.SelectAll
	}
	aggregator, err := aggregate.NewAggregator(aggregate.Options{
		SelectCount: selectCount,
		Adjust:      req.Adjust,
	})
	if err != nil {
		return nil, err
	}
	result.Rows = aggregator.Assemble(stats)

	manifest.RuntimeMs = time.Since(startTime).Milliseconds()
	manifest.Fingerprint = fingerprint(req, corrEngine.Method())
	s.logger.Info("analysis %s: %d pairs, %d retained, %d classified, %dms",
		manifest.RunID, manifest.TotalPairs, len(result.Rows), manifest.ClassifiedPairs, manifest.RuntimeMs)

	return result, nil
}

// countRejections tallies degenerate pairs for the manifest. A pair counts
// under exactly one code.
func countRejections(stats []diffcor.PairStatistic, counts map[diffcor.DegeneracyCode]int) {
	for _, s := range stats {
		switch {
		case s.NA < 3 || s.NB < 3:
			counts[diffcor.DegeneracyLowOverlap]++
		case math.IsNaN(s.CorrA) || math.IsNaN(s.CorrB):
			counts[diffcor.DegeneracyZeroVariance]++
		case !s.Defined():
			counts[diffcor.DegeneracySmallN]++
		}
	}
}

// fingerprint hashes the run's inputs and options so identical runs are
// recognizable across processes.
func fingerprint(req AnalysisRequest, method diffcor.CorrelationMethod) core.Hash {
	return core.HashFields(
		req.Expression.Fingerprint().String(),
		req.ConditionA,
		req.ConditionB,
		string(method),
		strconv.FormatInt(req.Seed, 10),
		strconv.Itoa(req.NPerm),
		string(req.PermMode),
		string(req.Adjust),
	)
}
