// Package metrics описывает prometheus-метрики цикла напоминаний.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты обработки одного дедлайна.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultOrphan  = "orphan"
	ResultError   = "error"
	ResultPending = "pending"
	ResultSkipped = "skipped"
)

// Sweep метрики прохода по дедлайнам.
type Sweep struct {
	runs       prometheus.Counter
	duration   prometheus.Histogram
	candidates prometheus.Gauge
	reminders  *prometheus.CounterVec
}

// NewSweep создает метрики и регистрирует их в reg.
func NewSweep(reg prometheus.Registerer) *Sweep {
	m := &Sweep{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deadline_reminder",
			Name:      "sweeps_total",
			Help:      "Number of completed reminder sweeps.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "deadline_reminder",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a reminder sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "deadline_reminder",
			Name:      "sweep_candidates",
			Help:      "Unreminded deadlines fetched by the last sweep.",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deadline_reminder",
			Name:      "reminders_total",
			Help:      "Reminder outcomes by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.runs, m.duration, m.candidates, m.reminders)
	return m
}

// ObserveSweep фиксирует завершенный проход.
func (m *Sweep) ObserveSweep(candidates int, took time.Duration) {
	m.runs.Inc()
	m.candidates.Set(float64(candidates))
	m.duration.Observe(took.Seconds())
}

// IncReminder увеличивает счетчик исхода result.
func (m *Sweep) IncReminder(result string) {
	m.reminders.WithLabelValues(result).Inc()
}
