// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking outcomes recorded by BookingsTotal.
const (
	OutcomeBooked        = "booked"
	OutcomeAlreadyBooked = "already_booked"
	OutcomeError         = "error"
)

// Metrics groups the collectors used by the HTTP layer and the services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP requests by method, route and status code.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP latency by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
	// Booking attempts by outcome (booked, already_booked, error).
	BookingsTotal *prometheus.CounterVec
	// Passengers created by the directory.
	PassengersCreatedTotal prometheus.Counter
	// Reset runs by result (ok, forbidden, error).
	ResetsTotal *prometheus.CounterVec
	// Seats reopened by reset runs.
	SeatsReopenedTotal prometheus.Counter
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_bookings_total",
				Help: "Seat booking attempts by outcome",
			},
			[]string{"outcome"},
		),
		PassengersCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "passengers_created_total",
				Help: "Passenger records created on first booking",
			},
		),
		ResetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_resets_total",
				Help: "Administrative reset runs by result",
			},
			[]string{"result"},
		),
		SeatsReopenedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seats_reopened_total",
				Help: "Seats reopened by reset runs",
			},
		),
	}
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.PassengersCreatedTotal,
		m.ResetsTotal,
		m.SeatsReopenedTotal,
	)
	return m
}

// Booking counts one booking attempt.
func (m *Metrics) Booking(outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

// PassengerCreated counts one new passenger.
func (m *Metrics) PassengerCreated() {
	if m == nil {
		return
	}
	m.PassengersCreatedTotal.Inc()
}

// Reset counts one reset run and the seats it reopened.
func (m *Metrics) Reset(result string, reopened int) {
	if m == nil {
		return
	}
	m.ResetsTotal.WithLabelValues(result).Inc()
	m.SeatsReopenedTotal.Add(float64(reopened))
}
