// Package service implements the asset registry: creation of uniquely
// identified assets, the per-owner index bounded by MaxOwned, and ownership
// transfer. Every mutation is one all-or-nothing store transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	identitygen "assetd/internal/registry/identity"
	"assetd/internal/registry/metrics"
	"assetd/internal/registry/models"
	"assetd/internal/registry/ports"
	"assetd/internal/registry/store"
	id "assetd/pkg/domain"
	dErrors "assetd/pkg/domain-errors"
	"assetd/pkg/platform/sentinel"
	"assetd/pkg/requestcontext"
)

// DefaultMaxOwned is the owner index capacity when none is configured.
const DefaultMaxOwned = 3

// Store runs registry transactions. *store.Tx implements it.
type Store interface {
	RunInTx(ctx context.Context, fn func(state *store.State) error) error
	View(ctx context.Context, fn func(state *store.State) error) error
}

// Service orchestrates identity generation, the counter, the registry and
// the owner index.
type Service struct {
	store      Store
	randomness ports.Randomness
	block      ports.BlockContext
	clock      ports.TimeSource
	maxOwned   int
	logger     *slog.Logger
	publisher  ports.Publisher
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPublisher sets where committed notifications are delivered.
func WithPublisher(publisher ports.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxOwned sets the owner index capacity. Values below 1 are ignored.
func WithMaxOwned(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOwned = n
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(st Store, randomness ports.Randomness, block ports.BlockContext, clock ports.TimeSource, opts ...Option) *Service {
	s := &Service{
		store:      st,
		randomness: randomness,
		block:      block,
		clock:      clock,
		maxOwned:   DefaultMaxOwned,
		tracer:     otel.Tracer("assetd/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxOwned returns the configured owner index capacity.
func (s *Service) MaxOwned() int {
	return s.maxOwned
}

// Asset returns the asset named by identity.
func (s *Service) Asset(ctx context.Context, identity id.Identity) (*models.Asset, error) {
	var asset *models.Asset
	err := s.store.View(ctx, func(st *store.State) error {
		var err error
		asset, err = st.Asset(ctx, identity)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(models.ErrNotFound, dErrors.CodeNotFound, "asset not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
	}
	return asset, nil
}

// OwnedBy returns the identities held by account. An account that never
// owned anything has an empty holding.
func (s *Service) OwnedBy(ctx context.Context, account id.AccountID) ([]id.Identity, error) {
	var items []id.Identity
	err := s.store.View(ctx, func(st *store.State) error {
		set, err := st.Owned(ctx, account)
		if err != nil {
			return err
		}
		items = set.Items()
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owned assets")
	}
	return items, nil
}

// TotalCreated returns the lifetime creation count.
func (s *Service) TotalCreated(ctx context.Context) (uint32, error) {
	var n uint32
	err := s.store.View(ctx, func(st *store.State) error {
		var err error
		n, err = st.Counter(ctx)
		return err
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load counter")
	}
	return n, nil
}

// generate draws the candidate identity for the current operation.
func (s *Service) generate(ctx context.Context) (id.Identity, models.Attribute) {
	seed, knownSince := s.randomness.Random(identitygen.Subject)
	index, ok := s.block.ExtrinsicIndex(ctx)
	if !ok {
		index = 0
	}
	block := s.block.BlockNumber(ctx)
	if s.logger != nil {
		s.logger.DebugContext(ctx, "identity randomness drawn",
			"block", block,
			"index", index,
			"known_since", knownSince,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return identitygen.Generate(seed, index, block)
}

// nextCounter returns counter+1 or ErrOverflow.
func nextCounter(counter uint32) (uint32, error) {
	if counter == math.MaxUint32 {
		return 0, dErrors.Wrap(models.ErrOverflow, dErrors.CodeOverflow, "asset counter overflow")
	}
	return counter + 1, nil
}

// translateStoreError maps a store failure that is not already a domain
// error onto one.
func translateStoreError(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "registry changed concurrently, retry")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// rejectionReason names err for metrics and logs.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, models.ErrDuplicateIdentity):
		return "duplicate_identity"
	case errors.Is(err, models.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, models.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, models.ErrOverflow):
		return "overflow"
	case errors.Is(err, sentinel.ErrConflict):
		return "conflict"
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return "timeout"
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) error {
	reason := rejectionReason(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	if s.metrics != nil {
		s.metrics.IncrementRejected(op, reason)
	}
	if s.logger != nil {
		level := slog.LevelWarn
		if reason == "internal" || reason == "overflow" {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, op+" rejected",
			"reason", reason,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return err
}

func (s *Service) logEvent(ctx context.Context, event models.EventType, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)
}

// publish delivers a committed event. The commit is final, so failures are
// only logged and counted.
func (s *Service) publish(ctx context.Context, event models.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementPublishFailure()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to publish registry event",
				"event", string(event.Type()),
				"identity", event.Key().String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
}

func spanAttrs(pairs ...string) trace.SpanStartEventOption {
	kv := make([]attribute.KeyValue, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		kv = append(kv, attribute.String(pairs[i], pairs[i+1]))
	}
	return trace.WithAttributes(kv...)
}
