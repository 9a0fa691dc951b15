package ports

import (
	"context"

	"assetd/internal/registry/models"
)

// These are hexagonal ports: the registry service depends on these
// interfaces and the host (or a test double) implements them. Every method
// is synchronous and deterministic for a given chain history, so replaying
// the same operations reproduces the same state.

// Randomness draws domain-separated randomness from the beacon.
type Randomness interface {
	// Random returns the seed for subject and the block number at which it
	// became known.
	Random(subject []byte) (seed [32]byte, knownSince uint64)
}

// BlockContext describes where in the chain the current operation runs.
type BlockContext interface {
	BlockNumber(ctx context.Context) uint64
	// ExtrinsicIndex reports the position of the current operation within
	// its block; ok is false outside a dispatched operation.
	ExtrinsicIndex(ctx context.Context) (index uint32, ok bool)
}

// TimeSource is the monotonic block timestamp in milliseconds.
type TimeSource interface {
	Now(ctx context.Context) uint64
}

// Publisher delivers committed registry notifications.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}
