package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSeal(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSeal(2)
	m.ObserveSeal(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BlocksSealed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BlockNumber))
}

func TestObserveDispatchByOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDispatch(nil)
	m.ObserveDispatch(errors.New("rejected"))
	m.ObserveDispatch(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExtrinsicsDispatched.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtrinsicsDispatched.WithLabelValues("error")))
}

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "second registration on the same registry must collide")
}
