package ports

import (
	"context"

	"godiffcor/domain/core"
	"godiffcor/domain/matrix"
)

// ImputerPort fills missing values for the selected variable rows, returning
// a complete matrix of the same shape.
type ImputerPort interface {
	Impute(ctx context.Context, m *matrix.ExpressionMatrix, variables []core.VariableKey) (*matrix.ExpressionMatrix, error)
}
