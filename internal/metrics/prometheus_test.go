package metrics

import (
	"testing"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "seatledger")

	m.BookingCreated(time.Now())
	m.BookingFailed(domain.ErrOutOfInventory)
	m.BookingFailed(domain.ErrOutOfInventory)
	m.SeatAttempt(nil)
	m.SeatAttempt(domain.ErrAllocationConflict)
	m.Cancelled("customer")
	m.Drift(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingFailures.WithLabelValues("OUT_OF_INVENTORY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SeatAllocations.WithLabelValues("ALLOCATION_CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cancellations.WithLabelValues("customer")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InventoryDrift))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookingCreated(time.Now())
		m.BookingFailed(domain.ErrNotFound)
		m.Published("booking_events", nil)
		m.HTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}
