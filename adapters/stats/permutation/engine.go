// Package permutation estimates differential correlation significance beyond
// the parametric normal approximation by resampling condition labels. Each
// permutation relabels the design while preserving per-condition group
// sizes, reruns the correlation and Fisher-z computation, and reduces the
// permuted statistics into a streaming null pool.
package permutation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"godiffcor/adapters/stats/correlation"
	"godiffcor/adapters/stats/diffz"
	"godiffcor/domain/core"
	"godiffcor/domain/diffcor"
	"godiffcor/domain/matrix"

	"golang.org/x/sync/semaphore"
)

// Mode selects the granularity of the empirical null.
type Mode string

const (
	ModePair   Mode = "pair"   // pooled reference null across all pairs
	ModeGene   Mode = "gene"   // per-variable averaged zDiff
	ModeGlobal Mode = "global" // single dataset-wide scalar
)

// Center selects the averaging statistic for gene and global modes.
type Center string

const (
	CenterMedian Center = "median"
	CenterMean   Center = "mean"
)

// Options configures a permutation run.
type Options struct {
	Mode        Mode
	NPerm       int
	Seed        int64
	Workers     int    // concurrent permutations; 0 resolves to GOMAXPROCS
	Center      Center // gene/global averaging, default median
	EstimatePi0 bool   // scale pair-level q-values by estimated true-null share
}

// Engine drives repeated relabeled recomputation. It reads only the
// immutable expression and design matrices; each worker owns its transient
// result batch and the pool reduction is associative and commutative.
type Engine struct {
	corr   *correlation.Engine
	differ *diffz.Differencer
	opts   Options
}

// Result carries the outputs of a permutation run. In pair mode the observed
// PairStatistics are annotated in place and Gene/Global stay nil.
type Result struct {
	Mode        Mode
	PooledCount int64
	Gene        []diffcor.GeneStatistic
	Global      *diffcor.GlobalStatistic
}

// NewEngine validates options and builds a permutation engine. Requesting
// any mode with nPerm = 0 is a configuration failure, surfaced before any
// computation.
func NewEngine(corr *correlation.Engine, differ *diffz.Differencer, opts Options) (*Engine, error) {
	if opts.Mode == "" {
		opts.Mode = ModePair
	}
	switch opts.Mode {
	case ModePair, ModeGene, ModeGlobal:
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("unknown permutation mode %q", opts.Mode))
	}
	if opts.NPerm <= 0 {
		if opts.Mode == ModeGene || opts.Mode == ModeGlobal {
			return nil, fmt.Errorf("%w: %s mode", core.ErrPermutationsNeeded, opts.Mode)
		}
		return nil, core.NewConfigurationError("pair-level permutation requires nPerm > 0")
	}
	if opts.Center == "" {
		opts.Center = CenterMedian
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{corr: corr, differ: differ, opts: opts}, nil
}

// Run executes nPerm seeded permutations against the observed statistics.
// The observed slice must be aligned with the engine's pair enumeration
// (which is how diffz produces it). Permutation i draws from its own source
// seeded with seed+i, so identical seeds reproduce identical empirical
// statistics regardless of worker scheduling.
func (e *Engine) Run(ctx context.Context, expr *matrix.ExpressionMatrix, design *matrix.DesignMatrix, condA, condB string, observed []diffcor.PairStatistic) (*Result, error) {
	if err := design.ValidateComparison(condA, condB); err != nil {
		return nil, err
	}
	idxA, err := design.SampleIndices(condA)
	if err != nil {
		return nil, err
	}
	idxB, err := design.SampleIndices(condB)
	if err != nil {
		return nil, err
	}

	pairs := e.corr.Pairs(expr.Variables())
	if len(pairs) != len(observed) {
		return nil, core.NewConfigurationError(fmt.Sprintf("observed statistics (%d) do not match enumerated pairs (%d)", len(observed), len(pairs)))
	}

	obsZ := make([]float64, len(observed))
	for i, s := range observed {
		obsZ[i] = s.ZDiff
	}

	switch e.opts.Mode {
	case ModeGene:
		return e.runGene(ctx, expr, condA, condB, idxA, idxB, pairs, obsZ)
	case ModeGlobal:
		return e.runGlobal(ctx, expr, condA, condB, idxA, idxB, pairs, obsZ)
	default:
		return e.runPair(ctx, expr, condA, condB, idxA, idxB, pairs, obsZ, observed)
	}
}

// permutedZ computes one permutation's batch of zDiff values. The batch is
// transient: it is reduced into the pool and discarded.
func (e *Engine) permutedZ(expr *matrix.ExpressionMatrix, condA, condB string, permA, permB []int, pairs []diffcor.Pair) []float64 {
	resA := e.corr.ComputeSubset(expr, condA, permA)
	resB := e.corr.ComputeSubset(expr, condB, permB)
	zs := make([]float64, len(pairs))
	for k, p := range pairs {
		zs[k], _ = e.differ.ZDiff(
			resA.Corr[p.I][p.J], resA.NUsed[p.I][p.J],
			resB.Corr[p.I][p.J], resB.NUsed[p.I][p.J],
		)
	}
	return zs
}

// forEachPermutation runs the seeded permutation loop with bounded
// concurrency and hands each worker's zDiff batch to reduce. The reduce
// callback runs outside any lock; it must synchronize its own accumulator.
func (e *Engine) forEachPermutation(ctx context.Context, expr *matrix.ExpressionMatrix, condA, condB string, idxA, idxB []int, pairs []diffcor.Pair, reduce func(permIndex int, zs []float64)) error {
	sem := semaphore.NewWeighted(int64(e.opts.Workers))
	var wg sync.WaitGroup

	var loopErr error
	for i := 1; i <= e.opts.NPerm; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			loopErr = err
			break
		}
		wg.Add(1)
		go func(permIndex int) {
			defer wg.Done()
			defer sem.Release(1)

			r := rand.New(rand.NewSource(e.opts.Seed + int64(permIndex)))
			permA, permB := relabel(r, idxA, idxB)
			reduce(permIndex, e.permutedZ(expr, condA, condB, permA, permB, pairs))
		}(i)
	}
	wg.Wait()
	return loopErr
}

// relabel shuffles the combined sample membership of both conditions and
// reassigns the first |A| samples to A and the rest to B, preserving group
// sizes.
func relabel(r *rand.Rand, idxA, idxB []int) (permA, permB []int) {
	combined := make([]int, 0, len(idxA)+len(idxB))
	combined = append(combined, idxA...)
	combined = append(combined, idxB...)
	r.Shuffle(len(combined), func(i, j int) {
		combined[i], combined[j] = combined[j], combined[i]
	})
	return combined[:len(idxA)], combined[len(idxA):]
}

// runPair builds the pooled reference null over every pair and every
// permutation, then annotates observed statistics with empirical p-values
// and monotone step-up q-values.
func (e *Engine) runPair(ctx context.Context, expr *matrix.ExpressionMatrix, condA, condB string, idxA, idxB []int, pairs []diffcor.Pair, obsZ []float64, observed []diffcor.PairStatistic) (*Result, error) {
	obsAbs := make([]float64, len(obsZ))
	for i, z := range obsZ {
		obsAbs[i] = math.Abs(z)
	}
	pool := newRefPool(obsAbs)

	var mu sync.Mutex
	err := e.forEachPermutation(ctx, expr, condA, condB, idxA, idxB, pairs, func(_ int, zs []float64) {
		local := pool.fresh()
		for _, z := range zs {
			local.add(math.Abs(z))
		}
		mu.Lock()
		pool.merge(local)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	counts := pool.exceedCounts()
	empP := make([]float64, len(observed))
	for i := range observed {
		if math.IsNaN(obsAbs[i]) {
			empP[i] = math.NaN()
			continue
		}
		empP[i] = pool.empiricalP(counts, pool.rank(obsAbs[i]))
	}
	qs := qValues(empP, e.opts.EstimatePi0)
	for i := range observed {
		observed[i].EmpiricalP = empP[i]
		observed[i].QValue = qs[i]
	}

	return &Result{Mode: ModePair, PooledCount: pool.total}, nil
}

// runGene pools per-variable averaged zDiff across all variables and all
// permutations and compares each observed per-variable average against it.
func (e *Engine) runGene(ctx context.Context, expr *matrix.ExpressionMatrix, condA, condB string, idxA, idxB []int, pairs []diffcor.Pair, obsZ []float64) (*Result, error) {
	variables := expr.Variables()
	pairsByVar := make([][]int, len(variables))
	for k, p := range pairs {
		pairsByVar[p.I] = append(pairsByVar[p.I], k)
		pairsByVar[p.J] = append(pairsByVar[p.J], k)
	}

	obsAvg := make([]float64, len(variables))
	obsAbs := make([]float64, 0, len(variables))
	for v := range variables {
		obsAvg[v] = e.varAverage(obsZ, pairsByVar[v])
		if !math.IsNaN(obsAvg[v]) {
			obsAbs = append(obsAbs, math.Abs(obsAvg[v]))
		}
	}
	pool := newRefPool(obsAbs)

	var mu sync.Mutex
	err := e.forEachPermutation(ctx, expr, condA, condB, idxA, idxB, pairs, func(_ int, zs []float64) {
		local := pool.fresh()
		for v := range variables {
			avg := e.varAverage(zs, pairsByVar[v])
			if !math.IsNaN(avg) {
				local.add(math.Abs(avg))
			}
		}
		mu.Lock()
		pool.merge(local)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	counts := pool.exceedCounts()
	genes := make([]diffcor.GeneStatistic, 0, len(variables))
	for v, key := range variables {
		if len(pairsByVar[v]) == 0 {
			continue
		}
		stat := diffcor.GeneStatistic{
			Variable:     key,
			AvgZDiff:     obsAvg[v],
			PairCount:    len(pairsByVar[v]),
			EmpiricalFDR: math.NaN(),
		}
		if !math.IsNaN(obsAvg[v]) {
			stat.EmpiricalFDR = pool.empiricalP(counts, pool.rank(math.Abs(obsAvg[v])))
		}
		genes = append(genes, stat)
	}

	return &Result{Mode: ModeGene, PooledCount: pool.total, Gene: genes}, nil
}

// runGlobal reduces every permutation to one scalar average and compares the
// observed dataset-wide average against that nPerm-sized distribution.
func (e *Engine) runGlobal(ctx context.Context, expr *matrix.ExpressionMatrix, condA, condB string, idxA, idxB []int, pairs []diffcor.Pair, obsZ []float64) (*Result, error) {
	obsGlobal := center(obsZ, e.opts.Center)

	scalars := make([]float64, e.opts.NPerm)
	err := e.forEachPermutation(ctx, expr, condA, condB, idxA, idxB, pairs, func(permIndex int, zs []float64) {
		scalars[permIndex-1] = center(zs, e.opts.Center)
	})
	if err != nil {
		return nil, err
	}

	defined := 0
	for _, z := range obsZ {
		if !math.IsNaN(z) {
			defined++
		}
	}

	global := &diffcor.GlobalStatistic{
		AvgZDiff:     obsGlobal,
		PairCount:    defined,
		EmpiricalFDR: math.NaN(),
		Permutations: e.opts.NPerm,
	}

	var pooled int64
	if !math.IsNaN(obsGlobal) {
		exceed := int64(0)
		for _, s := range scalars {
			if math.IsNaN(s) {
				continue
			}
			pooled++
			if math.Abs(s) >= math.Abs(obsGlobal) {
				exceed++
			}
		}
		global.EmpiricalFDR = float64(exceed+1) / float64(pooled+1)
	}

	return &Result{Mode: ModeGlobal, PooledCount: pooled, Global: global}, nil
}

// varAverage centers the zDiff values of one variable's pairs.
func (e *Engine) varAverage(zs []float64, pairIdx []int) float64 {
	if len(pairIdx) == 0 {
		return math.NaN()
	}
	vals := make([]float64, len(pairIdx))
	for i, k := range pairIdx {
		vals[i] = zs[k]
	}
	return center(vals, e.opts.Center)
}
