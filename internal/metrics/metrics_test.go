package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSweepMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSweep(reg)

	m.ObserveSweep(3, 20*time.Millisecond)
	m.ObserveSweep(1, 10*time.Millisecond)
	m.IncReminder(ResultSent)
	m.IncReminder(ResultSent)
	m.IncReminder(ResultFailed)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.runs))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.candidates))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.reminders.WithLabelValues(ResultSent)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reminders.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewSweep_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewSweep(reg)
	assert.Panics(t, func() { NewSweep(reg) })
}
