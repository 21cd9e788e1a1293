package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// resampling. The permutation engine keys each permutation's stream by its
// index so repeated runs with the same seed reproduce identical empirical
// statistics.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)
}
