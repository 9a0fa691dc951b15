package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	dErrors "assetd/pkg/domain-errors"
)

// defaultTxTimeout bounds one registry transaction including its commit.
const defaultTxTimeout = 5 * time.Second

// Tx is the transactional boundary for registry mutations. Only one
// transaction runs at a time per process; backends shared between processes
// rely on the commit-time read-set check instead.
type Tx struct {
	mu      sync.Mutex
	backend Backend
	timeout time.Duration
}

// TxOption configures a Tx.
type TxOption func(*Tx)

// WithTimeout overrides the default transaction timeout.
func WithTimeout(d time.Duration) TxOption {
	return func(t *Tx) {
		t.timeout = d
	}
}

// NewTx wraps backend in a transaction runner.
func NewTx(backend Backend, opts ...TxOption) *Tx {
	t := &Tx{backend: backend, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RunInTx stages all of fn's reads and writes and commits them atomically
// when fn returns nil. When fn returns an error nothing is written and the
// error is returned unchanged.
func (t *Tx) RunInTx(ctx context.Context, fn func(state *State) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	overlay := newOverlay(t.backend)
	if err := fn(&State{overlay: overlay}); err != nil {
		return err
	}

	batch := overlay.Batch()
	if batch.Empty() {
		return nil
	}
	if err := t.backend.Apply(ctx, batch); err != nil {
		return fmt.Errorf("commit registry batch: %w", err)
	}
	return nil
}

// View runs fn with reads served straight from the backend. Staged writes
// are discarded. View does not take the writer lock.
func (t *Tx) View(ctx context.Context, fn func(state *State) error) error {
	return fn(&State{overlay: newOverlay(t.backend)})
}

// Close releases the backend.
func (t *Tx) Close() error {
	return t.backend.Close()
}
