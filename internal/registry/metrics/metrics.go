package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the registry module.
// Tracks creations, transfers, rejections and critical path durations.
type Metrics struct {
	AssetsCreated     prometheus.Counter
	AssetsTransferred prometheus.Counter
	Rejections        *prometheus.CounterVec
	PublishFailures   prometheus.Counter
	CreateDuration    prometheus.Histogram
	TransferDuration  prometheus.Histogram
	OwnedSetSize      prometheus.Histogram
}

// New creates the registry metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AssetsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "assetd_assets_created_total",
			Help: "Total number of assets created",
		}),
		AssetsTransferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "assetd_assets_transferred_total",
			Help: "Total number of asset transfers",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assetd_registry_rejections_total",
			Help: "Registry operations rejected, by operation and reason",
		}, []string{"op", "reason"}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "assetd_registry_publish_failures_total",
			Help: "Notifications that could not be delivered after commit",
		}),
		CreateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetd_create_duration_seconds",
			Help:    "Duration of create operations including commit",
			Buckets: durationBuckets,
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetd_transfer_duration_seconds",
			Help:    "Duration of transfer operations including commit",
			Buckets: durationBuckets,
		}),
		OwnedSetSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetd_owned_set_size",
			Help:    "Owner index size after each committed insertion",
			Buckets: prometheus.LinearBuckets(0, 1, 16),
		}),
	}
}

// IncrementCreated records a committed creation and the owner's new holding size.
func (m *Metrics) IncrementCreated(ownedAfter int) {
	m.AssetsCreated.Inc()
	m.OwnedSetSize.Observe(float64(ownedAfter))
}

// IncrementTransferred records a committed transfer and the recipient's new holding size.
func (m *Metrics) IncrementTransferred(ownedAfter int) {
	m.AssetsTransferred.Inc()
	m.OwnedSetSize.Observe(float64(ownedAfter))
}

// IncrementRejected records a rejected operation.
func (m *Metrics) IncrementRejected(op, reason string) {
	m.Rejections.WithLabelValues(op, reason).Inc()
}

func (m *Metrics) IncrementPublishFailure() {
	m.PublishFailures.Inc()
}

// ObserveCreate records the duration of a create operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}

// ObserveTransfer records the duration of a transfer operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTransfer(start time.Time) {
	m.TransferDuration.Observe(time.Since(start).Seconds())
}
