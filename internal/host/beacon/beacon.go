// Package beacon derives domain-separated randomness from recent block
// hashes. Identical block histories yield identical values.
package beacon

import (
	"sync"

	"github.com/zeebo/blake3"
)

// Window is the number of recent block hashes mixed into each value.
const Window = 81

// Beacon keeps the last Window block hashes.
type Beacon struct {
	mu     sync.RWMutex
	hashes [][32]byte
	latest uint64
}

func New() *Beacon {
	return &Beacon{hashes: make([][32]byte, 0, Window)}
}

// Push records the hash of a sealed block. Blocks must be pushed in order.
func (b *Beacon) Push(number uint64, hash [32]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.hashes) == Window {
		copy(b.hashes, b.hashes[1:])
		b.hashes = b.hashes[:Window-1]
	}
	b.hashes = append(b.hashes, hash)
	b.latest = number
}

// Snapshot returns the window oldest first and the number of the newest
// block pushed.
func (b *Beacon) Snapshot() (latest uint64, hashes [][32]byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest, append([][32]byte(nil), b.hashes...)
}

// Restore replaces the window with a previous Snapshot. Only the newest
// Window hashes are kept.
func (b *Beacon) Restore(latest uint64, hashes [][32]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(hashes) > Window {
		hashes = hashes[len(hashes)-Window:]
	}
	b.hashes = append(make([][32]byte, 0, Window), hashes...)
	b.latest = latest
}

// Random returns blake3(subject || h_oldest || ... || h_newest) and the
// oldest block number whose hash contributed to it.
func (b *Beacon) Random(subject []byte) ([32]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	h := blake3.New()
	_, _ = h.Write(subject)
	for i := range b.hashes {
		_, _ = h.Write(b.hashes[i][:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))

	var knownSince uint64
	if n := uint64(len(b.hashes)); n > 0 && b.latest+1 >= n {
		knownSince = b.latest + 1 - n
	}
	return out, knownSince
}
