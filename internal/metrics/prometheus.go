package metrics

import (
	"strconv"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	BookingsCreated  prometheus.Counter
	BookingFailures  *prometheus.CounterVec
	BookingDuration  prometheus.Histogram
	Cancellations    *prometheus.CounterVec
	SeatAllocations  *prometheus.CounterVec
	TxRetries        *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	InventoryDrift   prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	PaymentCallbacks *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "The total number of bookings created",
		}),
		BookingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_failures_total",
			Help:      "Failed booking attempts by error kind",
		}, []string{"kind"}),
		BookingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_duration_seconds",
			Help:      "Time taken to create a booking, retries included",
			Buckets:   prometheus.DefBuckets,
		}),
		Cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancellations by actor",
		}, []string{"actor"}),
		SeatAllocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seat_allocations_total",
			Help:      "Seat allocation attempts by result",
		}, []string{"result"}),
		TxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_retries_total",
			Help:      "Transactions retried after the database aborted them",
		}, []string{"operation"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Published events by topic and result",
		}, []string{"topic", "result"}),
		InventoryDrift: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_drift_flights",
			Help:      "Flights whose class counters disagree with their free seat-slots at the last audit",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PaymentCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callbacks_total",
			Help:      "Payment results handled by status",
		}, []string{"status"}),
	}
}

func (m *Metrics) BookingCreated(started time.Time) {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
	m.BookingDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) BookingFailed(err error) {
	if m == nil {
		return
	}
	m.BookingFailures.WithLabelValues(string(domain.KindOf(err))).Inc()
}

func (m *Metrics) Cancelled(actor string) {
	if m == nil {
		return
	}
	m.Cancellations.WithLabelValues(actor).Inc()
}

func (m *Metrics) SeatAttempt(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	m.SeatAllocations.WithLabelValues(result).Inc()
}

func (m *Metrics) Retried(operation string) {
	if m == nil {
		return
	}
	m.TxRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) Published(topic string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(topic, result).Inc()
}

func (m *Metrics) Drift(flights int) {
	if m == nil {
		return
	}
	m.InventoryDrift.Set(float64(flights))
}

func (m *Metrics) PaymentCallback(status domain.PaymentStatus) {
	if m == nil {
		return
	}
	m.PaymentCallbacks.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
