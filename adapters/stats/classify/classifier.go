// Package classify assigns the nine-way sign-based differential correlation
// class labels.
package classify

import (
	"math"

	"godiffcor/domain/diffcor"
)

// DefaultCorrSigThreshold gates each condition's individual correlation sign.
const DefaultCorrSigThreshold = 0.05

// DefaultDiffSigThreshold gates whether a pair receives a label at all.
const DefaultDiffSigThreshold = 0.05

// Classifier maps signed, significance-gated correlations to class labels.
// Purely a function of thresholds and already-computed statistics; no
// randomness.
type Classifier struct {
	corrSigThreshold float64
	diffSigThreshold float64
}

// NewClassifier creates a classifier. Non-positive thresholds resolve to the
// defaults.
func NewClassifier(corrSigThreshold, diffSigThreshold float64) *Classifier {
	if corrSigThreshold <= 0 {
		corrSigThreshold = DefaultCorrSigThreshold
	}
	if diffSigThreshold <= 0 {
		diffSigThreshold = DefaultDiffSigThreshold
	}
	return &Classifier{
		corrSigThreshold: corrSigThreshold,
		diffSigThreshold: diffSigThreshold,
	}
}

// Classify labels every pair whose differential significance clears the
// threshold, in place. Pairs below the bar keep an empty label and are
// excluded from the classified set. When useEmpirical is set the
// permutation-derived empirical p-value substitutes for the parametric
// differential p-value.
func (c *Classifier) Classify(stats []diffcor.PairStatistic, useEmpirical bool) int {
	classified := 0
	for i := range stats {
		label, ok := c.classLabel(&stats[i], useEmpirical)
		if !ok {
			stats[i].Class = ""
			continue
		}
		stats[i].Class = label
		classified++
	}
	return classified
}

func (c *Classifier) classLabel(s *diffcor.PairStatistic, useEmpirical bool) (diffcor.ClassLabel, bool) {
	gate := s.PValDiff
	if useEmpirical {
		gate = s.EmpiricalP
	}
	if math.IsNaN(gate) || gate >= c.diffSigThreshold {
		return "", false
	}
	return diffcor.MakeClassLabel(
		c.sign(s.CorrA, s.PValA),
		c.sign(s.CorrB, s.PValB),
	), true
}

// sign is "0" whenever the condition's correlation p-value misses the
// individual threshold, regardless of the coefficient's actual sign.
func (c *Classifier) sign(r, p float64) diffcor.Sign {
	if math.IsNaN(r) || math.IsNaN(p) || p >= c.corrSigThreshold {
		return diffcor.SignZero
	}
	if r > 0 {
		return diffcor.SignPositive
	}
	if r < 0 {
		return diffcor.SignNegative
	}
	return diffcor.SignZero
}
