// Package ports defines the interface boundaries of the core analysis: the
// external collaborators it can be composed with, specified here only at
// their seams. Implementations live outside this module.
package ports

import (
	"context"

	"godiffcor/domain/matrix"
)

// FilterDimension selects the per-variable summary a percentile filter
// operates on.
type FilterDimension string

const (
	FilterCentralTendency FilterDimension = "central_tendency"
	FilterDispersion      FilterDimension = "dispersion"
)

// FilterPort reduces an expression matrix to a subset of its variable rows
// by a central-tendency or dispersion percentile cut.
type FilterPort interface {
	Filter(ctx context.Context, m *matrix.ExpressionMatrix, dim FilterDimension, percentile float64) (*matrix.ExpressionMatrix, error)
}
