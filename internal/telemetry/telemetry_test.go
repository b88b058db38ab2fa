package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/opsfolio/resource-surveillance-sub000/internal/session"
)

func TestMetricsImplementsSessionInterface(t *testing.T) {
	var _ session.Metrics = New(prometheus.NewRegistry())
}

func TestIncURStatusIgnoresEmptyStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncURStatus("")
	m.IncURStatus("ok")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.urStatus.WithLabelValues("ok")))
}

func TestObserveSessionDuration(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSessionDuration(1.5)
	assert.Equal(t, 1, testutil.CollectAndCount(m.sessionDuration))
}
