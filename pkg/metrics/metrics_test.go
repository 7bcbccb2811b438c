package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegistry("slot-booking", prometheus.NewRegistry())

	m.IncBookingCreated("online")
	m.IncBookingCreated("online")
	m.IncBookingCreated("walk_in")
	m.AddSlotsGenerated(32)
	m.AddSlotsGenerated(0)
	m.IncReservationConflict("slots")

	assert.Equal(t, 2.0, counterValue(t, m.BookingsCreated.WithLabelValues("slot-booking", "online")))
	assert.Equal(t, 1.0, counterValue(t, m.BookingsCreated.WithLabelValues("slot-booking", "walk_in")))
	assert.Equal(t, 32.0, counterValue(t, m.SlotsGenerated.WithLabelValues("slot-booking")))
	assert.Equal(t, 1.0, counterValue(t, m.ReservationConflicts.WithLabelValues("slot-booking", "slots")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncBookingCreated("online")
		m.ObserveHTTP("GET", "/x", "200", time.Millisecond)
		m.ObserveQuery("select", time.Millisecond, nil)
		m.SetPoolStats(1, 1, 0, 0)
		m.IncSlotGenerationFailure()
	})
}
