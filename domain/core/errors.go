package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors: incompatible option combinations, caught before
	// any computation starts.
	ErrConfiguration      = errors.New("invalid analysis configuration")
	ErrConditionNotFound  = fmt.Errorf("%w: condition not present in design", ErrConfiguration)
	ErrPermutationsNeeded = fmt.Errorf("%w: mode requires nPerm > 0", ErrConfiguration)
	ErrBadSelectCount     = fmt.Errorf("%w: selection count must be positive", ErrConfiguration)

	// Input shape errors: structural problems with the supplied matrices.
	ErrInputShape           = errors.New("input shape mismatch")
	ErrDuplicateVariable    = fmt.Errorf("%w: duplicate variable identifier", ErrInputShape)
	ErrSampleCountMismatch  = fmt.Errorf("%w: design samples do not match expression columns", ErrInputShape)
	ErrRaggedMatrix         = fmt.Errorf("%w: rows have unequal lengths", ErrInputShape)
	ErrVariableNotFound     = errors.New("variable not found")
	ErrInsufficientOverlap  = errors.New("insufficient non-missing overlap")
	ErrNonDeterministicSeed = errors.New("seed mismatch")
)

// Error constructors with context
func NewConditionError(condition string) error {
	return fmt.Errorf("%w: %q", ErrConditionNotFound, condition)
}

func NewDuplicateVariableError(id string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateVariable, id)
}

func NewSampleCountError(design, expression int) error {
	return fmt.Errorf("%w: design has %d, expression has %d", ErrSampleCountMismatch, design, expression)
}

func NewShapeError(detail string) error {
	return fmt.Errorf("%w: %s", ErrInputShape, detail)
}

func NewConfigurationError(detail string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, detail)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsInputShapeError(err error) bool {
	return errors.Is(err, ErrInputShape)
}
