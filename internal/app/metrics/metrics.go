package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger_service",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_service",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger_service",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	registrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger_service",
			Subsystem: "users",
			Name:      "registrations_total",
			Help:      "Total number of completed registrations.",
		},
	)

	balanceMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_service",
			Subsystem: "ledger",
			Name:      "balance_mutations_total",
			Help:      "Total number of balance mutations by kind.",
		},
		[]string{"kind"},
	)

	amountMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_service",
			Subsystem: "ledger",
			Name:      "amount_moved_total",
			Help:      "Total amount credited or debited by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		registrations,
		balanceMutations,
		amountMoved,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRegistration counts a completed registration.
func RecordRegistration() {
	registrations.Inc()
}

// RecordBalanceMutation counts one balance mutation and the amount it moved.
// Kind is one of deposit_credit, withdraw_debit, withdraw_refund, adjust.
func RecordBalanceMutation(kind string, amount float64) {
	if amount < 0 {
		amount = -amount
	}
	balanceMutations.WithLabelValues(kind).Inc()
	amountMoved.WithLabelValues(kind).Add(amount)
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses record identifiers so the path label stays bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")

	switch parts[0] {
	case "users", "deposits", "withdrawals", "orders", "tasks", "team", "products", "plans", "wallets":
		if len(parts) == 1 {
			return "/" + parts[0]
		}
		switch parts[1] {
		case "register", "login", "search", "requests", "details", "stats", "transactions":
			if len(parts) == 2 {
				return "/" + parts[0] + "/" + parts[1]
			}
			return "/" + parts[0] + "/" + parts[1] + "/:id"
		}
		if len(parts) == 2 {
			return "/" + parts[0] + "/:id"
		}
		return "/" + parts[0] + "/:id/" + parts[2]
	}
	return "/" + parts[0]
}
