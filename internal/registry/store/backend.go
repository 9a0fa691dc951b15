// Package store persists the registry's three logical stores (counter,
// assets, owner index) on top of a small key-value Backend with an atomic
// batch commit.
//
// Every mutation goes through Tx.RunInTx: reads and writes are staged in an
// Overlay and only reach the Backend as one Batch after the callback returns
// nil. A Backend applies a Batch all-or-nothing and refuses it with
// sentinel.ErrConflict when any key read during the transaction has changed.
package store

import (
	"bytes"
	"context"
)

// Backend is a key-value store with atomic multi-key commit.
// Get returns sentinel.ErrNotFound for absent keys.
type Backend interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Apply(ctx context.Context, batch *Batch) error
	Close() error
}

// Read is the first observation of a key within a transaction.
type Read struct {
	Key     []byte
	Value   []byte
	Present bool
}

// Matches reports whether a current backend value equals this observation.
func (r Read) Matches(value []byte, present bool) bool {
	if r.Present != present {
		return false
	}
	return !present || bytes.Equal(r.Value, value)
}

// Write is the final staged value of a key.
type Write struct {
	Key   []byte
	Value []byte
}

// Batch is the unit of atomic commit: the read set to validate and the
// writes to apply, both in first-touch order.
type Batch struct {
	Reads  []Read
	Writes []Write
}

func (b *Batch) Empty() bool {
	return b == nil || len(b.Writes) == 0
}

// ReadKeys returns the keys of the read set.
func (b *Batch) ReadKeys() [][]byte {
	keys := make([][]byte, len(b.Reads))
	for i, r := range b.Reads {
		keys[i] = r.Key
	}
	return keys
}
