package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the host: block production and
// extrinsic dispatch.
type Metrics struct {
	BlocksSealed         prometheus.Counter
	BlockNumber          prometheus.Gauge
	ExtrinsicsDispatched *prometheus.CounterVec
}

// New registers host metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BlocksSealed: factory.NewCounter(prometheus.CounterOpts{
			Name: "assetd_blocks_sealed_total",
			Help: "Total number of blocks sealed by the host",
		}),
		BlockNumber: factory.NewGauge(prometheus.GaugeOpts{
			Name: "assetd_block_number",
			Help: "Number of the block currently being built",
		}),
		ExtrinsicsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assetd_extrinsics_dispatched_total",
			Help: "Extrinsics dispatched, by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveSeal records a sealed block and the number of the next one.
func (m *Metrics) ObserveSeal(next uint64) {
	m.BlocksSealed.Inc()
	m.BlockNumber.Set(float64(next))
}

// ObserveDispatch records one extrinsic outcome.
func (m *Metrics) ObserveDispatch(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ExtrinsicsDispatched.WithLabelValues(outcome).Inc()
}
