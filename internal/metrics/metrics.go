package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of the order API. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPLatency    *prometheus.HistogramVec
	UseCases       *prometheus.CounterVec
	UseCaseLatency *prometheus.HistogramVec
	AdjustFailures *prometheus.CounterVec
}

// New registers the collectors on reg under storefront_<service>_*. Dashes in
// service become underscores.
func New(reg prometheus.Registerer, service string) *Metrics {
	service = strings.ReplaceAll(service, "-", "_")
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: service,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: service,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		UseCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: service,
			Name:      "usecase_requests_total",
			Help:      "Total number of order use case invocations.",
		}, []string{"use_case", "outcome"}),
		UseCaseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: service,
			Name:      "usecase_duration_seconds",
			Help:      "Duration of order use case execution in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
		AdjustFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: service,
			Name:      "inventory_adjust_failures_total",
			Help:      "Line-item inventory adjustments that could not be applied.",
		}, []string{"direction"}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPLatency, m.UseCases, m.UseCaseLatency, m.AdjustFailures)
	return m
}

func (m *Metrics) ObserveUseCase(useCase, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UseCases.WithLabelValues(useCase, outcome).Inc()
	m.UseCaseLatency.WithLabelValues(useCase).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) AdjustFailed(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AdjustFailures.WithLabelValues(direction).Add(float64(n))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
