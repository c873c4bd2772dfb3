package advisor

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
)

// Metrics is the advisor's prometheus registry. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	requests  *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
	upstream  *prometheus.CounterVec
	breaker   *prometheus.GaugeVec
	soilTests *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_requests_total",
			Help: "API requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_nutrient_outcomes_total",
			Help: "Per-nutrient recommendation outcomes.",
		}, []string{"nutrient", "kind"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_upstream_requests_total",
			Help: "Calls to collaborator services by result.",
		}, []string{"upstream", "result"}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "advisor_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"upstream"}),
		soilTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_soil_tests_total",
			Help: "Soil tests received over MQTT by status.",
		}, []string{"status"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.outcomes, m.upstream, m.breaker, m.soilTests,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(endpoint string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

func (m *Metrics) ObserveReport(rep fertilizer.Report) {
	if m == nil {
		return
	}
	for _, o := range rep.Outcomes {
		m.outcomes.WithLabelValues(string(o.Nutrient), o.Kind.String()).Inc()
	}
}

func (m *Metrics) ObserveUpstream(name, result string) {
	if m == nil {
		return
	}
	m.upstream.WithLabelValues(name, result).Inc()
}

func (m *Metrics) SetBreakerState(name string, st gobreaker.State) {
	if m == nil {
		return
	}
	m.breaker.WithLabelValues(name).Set(float64(st))
}

func (m *Metrics) ObserveSoilTest(status string) {
	if m == nil {
		return
	}
	m.soilTests.WithLabelValues(status).Inc()
}
