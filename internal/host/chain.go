// Package host runs registry operations the way a block-producing runtime
// would: one dispatch at a time, each tagged with the current block number
// and its extrinsic index, with blocks sealed on a timer.
package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"assetd/internal/host/beacon"
	"assetd/internal/platform/metrics"
	"assetd/internal/registry/store"
	"assetd/pkg/platform/clock"
	"assetd/pkg/platform/sentinel"
	"assetd/pkg/requestcontext"
)

// Header summarizes a sealed block.
type Header struct {
	Number     uint64
	Hash       [32]byte
	Parent     [32]byte
	Extrinsics uint32
	Timestamp  uint64
}

type dispatchKey struct{}

type dispatchInfo struct {
	block uint64
	index uint32
}

// Chain is the sequential host. It implements the registry's Randomness,
// BlockContext and TimeSource ports.
type Chain struct {
	// dispatchMu serializes Dispatch and SealBlock.
	dispatchMu sync.Mutex

	mu         sync.RWMutex
	number     uint64
	parent     [32]byte
	extrinsics uint32
	timestamp  uint64

	clock   clock.Clock
	beacon  *beacon.Beacon
	backend store.Backend
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Chain)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Chain) {
		c.metrics = m
	}
}

// WithBackend persists the chain head on every seal so Restore can resume
// after a restart. Use the backend that holds the registry.
func WithBackend(backend store.Backend) Option {
	return func(c *Chain) {
		c.backend = backend
	}
}

// New starts a chain at block 1 with its timestamp taken from clk.
func New(clk clock.Clock, b *beacon.Beacon, opts ...Option) *Chain {
	c := &Chain{
		number:    1,
		timestamp: uint64(clk.Now().UnixMilli()),
		clock:     clk,
		beacon:    b,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch runs fn as the next extrinsic of the current block. Only one
// dispatch runs at a time. The extrinsic index advances whether or not fn
// succeeds.
func (c *Chain) Dispatch(ctx context.Context, fn func(ctx context.Context) error) error {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.RLock()
	info := dispatchInfo{block: c.number, index: c.extrinsics}
	c.mu.RUnlock()

	err := fn(context.WithValue(ctx, dispatchKey{}, info))

	c.mu.Lock()
	c.extrinsics++
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveDispatch(err)
	}
	return err
}

// SealBlock closes the current block: its hash is fed to the beacon, the
// block number advances, the extrinsic index resets and a new timestamp is
// taken. Timestamps strictly increase even if the clock does not. With a
// backend the new head is written first; if that fails the block stays open
// and nothing changes.
func (c *Chain) SealBlock(ctx context.Context) (Header, error) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	header := Header{
		Number:     c.number,
		Parent:     c.parent,
		Extrinsics: c.extrinsics,
		Timestamp:  c.timestamp,
	}
	header.Hash = blockHash(header)
	next := c.nextTimestamp(c.timestamp)

	_, window := c.beacon.Snapshot()
	window = append(window, header.Hash)
	if len(window) > beacon.Window {
		window = window[len(window)-beacon.Window:]
	}
	if err := c.persist(ctx, newHead(header.Number+1, header.Hash, next, header.Number, window)); err != nil {
		c.mu.Unlock()
		return Header{}, err
	}

	c.parent = header.Hash
	c.number++
	c.extrinsics = 0
	c.timestamp = next
	number := c.number
	c.mu.Unlock()

	c.beacon.Push(header.Number, header.Hash)
	if c.metrics != nil {
		c.metrics.ObserveSeal(number)
	}
	if c.logger != nil {
		c.logger.DebugContext(ctx, "block sealed",
			"number", header.Number,
			"extrinsics", header.Extrinsics,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return header, nil
}

// Restore resumes from the head persisted by a previous process. The block
// that process was building is abandoned: identities may already carry its
// number, so the chain continues at the next one. The resumed head is
// written back before returning so a second restart skips forward again.
// Call it once, before the first Dispatch. Without a backend it is a no-op.
func (c *Chain) Restore(ctx context.Context) error {
	if c.backend == nil {
		return nil
	}
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.backend.Get(ctx, store.ChainKey())
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		latest, window := c.beacon.Snapshot()
		return c.persist(ctx, newHead(c.number, c.parent, c.timestamp, latest, window))
	case err != nil:
		return fmt.Errorf("load chain head: %w", err)
	}

	h, parent, window, err := decodeHead(raw)
	if err != nil {
		return err
	}
	number := h.Number + 1
	timestamp := c.nextTimestamp(h.Timestamp)
	if err := c.persist(ctx, newHead(number, parent, timestamp, h.BeaconLatest, window)); err != nil {
		return err
	}

	c.number = number
	c.parent = parent
	c.extrinsics = 0
	c.timestamp = timestamp
	c.beacon.Restore(h.BeaconLatest, window)
	if c.metrics != nil {
		c.metrics.BlockNumber.Set(float64(number))
	}
	if c.logger != nil {
		c.logger.InfoContext(ctx, "chain head restored",
			"abandoned_block", h.Number,
			"number", number,
			"beacon_hashes", len(window),
		)
	}
	return nil
}

// nextTimestamp reads the clock, forced past after.
func (c *Chain) nextTimestamp(after uint64) uint64 {
	next := uint64(c.clock.Now().UnixMilli())
	if next <= after {
		next = after + 1
	}
	return next
}

func (c *Chain) persist(ctx context.Context, h head) error {
	if c.backend == nil {
		return nil
	}
	value, err := h.encode()
	if err != nil {
		return fmt.Errorf("encode chain head: %w", err)
	}
	batch := &store.Batch{Writes: []store.Write{{Key: store.ChainKey(), Value: value}}}
	if err := c.backend.Apply(ctx, batch); err != nil {
		return fmt.Errorf("persist chain head: %w", err)
	}
	return nil
}

// Run seals a block every interval until ctx is cancelled.
func (c *Chain) Run(ctx context.Context, interval time.Duration) error {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.SealBlock(ctx); err != nil && c.logger != nil {
				c.logger.ErrorContext(ctx, "failed to seal block", "error", err)
			}
		}
	}
}

func blockHash(h Header) [32]byte {
	var buf [32 + 8 + 4 + 8]byte
	copy(buf[:32], h.Parent[:])
	binary.LittleEndian.PutUint64(buf[32:40], h.Number)
	binary.LittleEndian.PutUint32(buf[40:44], h.Extrinsics)
	binary.LittleEndian.PutUint64(buf[44:52], h.Timestamp)
	return blake3.Sum256(buf[:])
}

// Random draws from the beacon.
func (c *Chain) Random(subject []byte) ([32]byte, uint64) {
	return c.beacon.Random(subject)
}

// BlockNumber returns the block the current dispatch belongs to, or the
// block being built when called outside a dispatch.
func (c *Chain) BlockNumber(ctx context.Context) uint64 {
	if info, ok := ctx.Value(dispatchKey{}).(dispatchInfo); ok {
		return info.block
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.number
}

// ExtrinsicIndex returns the index of the current dispatch.
func (c *Chain) ExtrinsicIndex(ctx context.Context) (uint32, bool) {
	info, ok := ctx.Value(dispatchKey{}).(dispatchInfo)
	return info.index, ok
}

// Now returns the current block timestamp in milliseconds.
func (c *Chain) Now(context.Context) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timestamp
}

// Head returns the number of the block being built and the hash of its parent.
func (c *Chain) Head() (uint64, [32]byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.number, c.parent
}
