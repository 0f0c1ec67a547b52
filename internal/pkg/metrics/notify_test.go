package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMetrics_RecordsSendsAndSkips(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.IncSend("email", "sent")
	m.IncSend("email", "sent")
	m.IncSend("sms", "failed")
	m.IncSkipped("no_recipients")
	m.ObserveDispatch("transfer_requested", 150*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.sends.WithLabelValues("email", "sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sends.WithLabelValues("sms", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.skipped.WithLabelValues("no_recipients")))

	n, err := testutil.GatherAndCount(reg, "notification_dispatch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDispatchMetrics_EmptyLabelNormalised(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.IncSkipped("")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.skipped.WithLabelValues("unknown")))
}

func TestDispatchMetrics_NilSafe(t *testing.T) {
	var m *DispatchMetrics
	assert.NotPanics(t, func() {
		m.IncSend("email", "sent")
		m.IncSkipped("x")
		m.ObserveDispatch("e", time.Second)
	})
	assert.NotPanics(t, func() {
		NewDispatchMetrics(nil).IncSend("email", "sent")
	})
}
