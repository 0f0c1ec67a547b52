package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records notification dispatch outcomes.
type DispatchMetrics struct {
	duration *prometheus.HistogramVec
	sends    *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on reg. A nil reg yields a no-op recorder.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_dispatch_duration_seconds",
		Help:    "Duration of a full dispatch for one event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	sends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_sends_total",
		Help: "Send attempts by channel and outcome.",
	}, []string{"channel", "status"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_rules_skipped_total",
		Help: "Matching rules that produced no sends, by reason.",
	}, []string{"reason"})
	reg.MustRegister(duration, sends, skipped)
	return &DispatchMetrics{duration: duration, sends: sends, skipped: skipped}
}

func (m *DispatchMetrics) ObserveDispatch(event string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(event)).Observe(d.Seconds())
}

func (m *DispatchMetrics) IncSend(channel, status string) {
	if m == nil || m.sends == nil {
		return
	}
	m.sends.WithLabelValues(normalizeLabel(channel), normalizeLabel(status)).Inc()
}

func (m *DispatchMetrics) IncSkipped(reason string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
