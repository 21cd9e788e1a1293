package ports

import (
	"context"
	"io"

	"godiffcor/domain/core"
	"godiffcor/domain/diffcor"
	"godiffcor/domain/matrix"
)

// VisualizerPort renders display artifacts from correlation results or raw
// expression values. Nothing it produces feeds back into the core.
type VisualizerPort interface {
	// Heatmap renders the differential correlation structure of a
	// condition result pair.
	Heatmap(ctx context.Context, condA, condB *diffcor.ConditionResult, w io.Writer) error

	// Scatter renders the raw expression values of two variables across
	// both conditions.
	Scatter(ctx context.Context, m *matrix.ExpressionMatrix, d *matrix.DesignMatrix, varA, varB core.VariableKey, w io.Writer) error
}
