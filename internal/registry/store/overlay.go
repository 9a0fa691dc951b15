package store

import (
	"context"
	"errors"
	"fmt"

	"assetd/pkg/platform/sentinel"
)

// Overlay stages reads and writes for one transaction. Reads see the
// transaction's own writes; everything else reads through to the backend
// once and is remembered for commit-time validation.
type Overlay struct {
	backend Backend

	reads     map[string]Read
	readOrder []string

	writes     map[string][]byte
	writeOrder []string
}

func newOverlay(backend Backend) *Overlay {
	return &Overlay{
		backend: backend,
		reads:   make(map[string]Read),
		writes:  make(map[string][]byte),
	}
}

// Get returns a copy of the current value of key and whether it exists.
func (o *Overlay) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	k := string(key)
	if v, ok := o.writes[k]; ok {
		return clone(v), true, nil
	}
	if r, ok := o.reads[k]; ok {
		return clone(r.Value), r.Present, nil
	}

	value, err := o.backend.Get(ctx, key)
	present := true
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, fmt.Errorf("read %q: %w", key, err)
		}
		present = false
		value = nil
	}
	o.reads[k] = Read{Key: clone(key), Value: clone(value), Present: present}
	o.readOrder = append(o.readOrder, k)
	return value, present, nil
}

// Put stages value for key. The last Put of a key wins.
func (o *Overlay) Put(key, value []byte) {
	k := string(key)
	if _, ok := o.writes[k]; !ok {
		o.writeOrder = append(o.writeOrder, k)
	}
	o.writes[k] = clone(value)
}

// Batch snapshots the staged reads and writes.
func (o *Overlay) Batch() *Batch {
	b := &Batch{
		Reads:  make([]Read, 0, len(o.readOrder)),
		Writes: make([]Write, 0, len(o.writeOrder)),
	}
	for _, k := range o.readOrder {
		b.Reads = append(b.Reads, o.reads[k])
	}
	for _, k := range o.writeOrder {
		b.Writes = append(b.Writes, Write{Key: []byte(k), Value: o.writes[k]})
	}
	return b
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
