package ports

import (
	"context"

	"godiffcor/domain/core"
	"godiffcor/domain/diffcor"
)

// EnrichmentResult is one annotation term's over-representation statistic
// within a classified variable list.
type EnrichmentResult struct {
	Term     string             `json:"term"`
	Class    diffcor.ClassLabel `json:"class"`
	PValue   float64            `json:"p_value"`
	QValue   float64            `json:"q_value"`
	Overlap  int                `json:"overlap"`
	TermSize int                `json:"term_size"`
}

// EnrichmentPort tests classified variable lists for annotation enrichment
// against a universe set. Independent of the core's internal state.
type EnrichmentPort interface {
	Enrich(ctx context.Context, classified map[diffcor.ClassLabel][]core.VariableKey, universe []core.VariableKey) ([]EnrichmentResult, error)
}
