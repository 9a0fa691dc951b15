package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementCreated(1)
	m.IncrementCreated(2)
	m.IncrementTransferred(1)
	m.IncrementRejected("create", "capacity_exceeded")
	m.IncrementPublishFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AssetsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetsTransferred))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("create", "capacity_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures))
}

func TestNewWithSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
