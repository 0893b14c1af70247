/**
 * @description
 * Prometheus instrumentation: HTTP request metrics recorded by a chi
 * middleware, plus counters for the circulation and appointment flows
 * that the services bump directly. The path label uses the chi route
 * pattern so UUIDs in URLs do not explode cardinality.
 */

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge

	reservationsCreated prometheus.Counter
	reservationsExpired prometheus.Counter
	loansCreated        prometheus.Counter
	loansReturned       prometheus.Counter
	loansMarkedOverdue  prometheus.Counter
	appointmentsBooked  prometheus.Counter
}

// NewMetrics creates and registers all collectors with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "church_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "church_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		requestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "church_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		reservationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "church_reservations_created_total",
			Help: "Total number of reservation holds placed",
		}),
		reservationsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "church_reservations_expired_total",
			Help: "Total number of reservations expired by the sweep",
		}),
		loansCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "church_loans_created_total",
			Help: "Total number of loans created, directly or by conversion",
		}),
		loansReturned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "church_loans_returned_total",
			Help: "Total number of loans returned",
		}),
		loansMarkedOverdue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "church_loans_marked_overdue_total",
			Help: "Total number of loans marked overdue by the sweep",
		}),
		appointmentsBooked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "church_appointments_booked_total",
			Help: "Total number of pastoral appointments requested",
		}),
	}
}

// ReservationCreated bumps the reservation counter.
func (m *Metrics) ReservationCreated() { m.reservationsCreated.Inc() }

// ReservationsExpired adds the sweep's batch size.
func (m *Metrics) ReservationsExpired(n int) { m.reservationsExpired.Add(float64(n)) }

// LoanCreated bumps the loan counter.
func (m *Metrics) LoanCreated() { m.loansCreated.Inc() }

// LoanReturned bumps the return counter.
func (m *Metrics) LoanReturned() { m.loansReturned.Inc() }

// LoansMarkedOverdue adds the sweep's batch size.
func (m *Metrics) LoansMarkedOverdue(n int) { m.loansMarkedOverdue.Add(float64(n)) }

// AppointmentBooked bumps the appointment counter.
func (m *Metrics) AppointmentBooked() { m.appointmentsBooked.Inc() }

// Middleware records request count, duration and in-flight gauge for
// every routed request.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			status := strconv.Itoa(rw.status)
			m.requestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.requestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
