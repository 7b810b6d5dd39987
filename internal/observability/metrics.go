package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TobiSchelling/healthcap/internal/dataset"
)

const namespace = "healthcap"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	registry *prometheus.Registry

	// Chart rendering.
	ChartRenders       *prometheus.CounterVec   // labels: chart={line,scatter,heatmap}, outcome={ok,blank}
	ChartRenderSeconds *prometheus.HistogramVec // labels: chart
	Selections         *prometheus.CounterVec   // labels: source={page,fragment,api,live}, known={true,false}

	// Dataset shape, set once after the pipeline runs.
	JoinedRows   prometheus.Gauge
	CasesOnly    prometheus.Gauge
	HospitalOnly prometheus.Gauge
	States       prometheus.Gauge

	// Transport.
	LiveSessions    prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec   // labels: route, method, status
	HTTPReqDuration *prometheus.HistogramVec // labels: route
}

// NewMetrics creates every metric on a dedicated registry that also
// carries the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ChartRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_renders_total",
			Help:      "Charts drawn by chart and outcome.",
		}, []string{"chart", "outcome"}),
		ChartRenderSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_render_duration_seconds",
			Help:      "Time to draw one chart as SVG.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"chart"}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "State selections by source and whether the state was known.",
		}, []string{"source", "known"}),
		JoinedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "joined_rows",
			Help:      "Rows in the joined dataset.",
		}),
		CasesOnly: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_cases_only_rows",
			Help:      "Case rows without a matching hospital row.",
		}),
		HospitalOnly: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_hospital_only_rows",
			Help:      "Hospital rows without a matching case row.",
		}),
		States: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "states",
			Help:      "Distinct states offered in the selection.",
		}),
		LiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Open websocket sessions.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPReqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ChartRenders,
		m.ChartRenderSeconds,
		m.Selections,
		m.JoinedRows,
		m.CasesOnly,
		m.HospitalOnly,
		m.States,
		m.LiveSessions,
		m.HTTPRequests,
		m.HTTPReqDuration,
	)

	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveChart records one chart draw.
func (m *Metrics) ObserveChart(name string, elapsed time.Duration, fallback bool) {
	outcome := "ok"
	if fallback {
		outcome = "blank"
	}
	m.ChartRenders.WithLabelValues(name, outcome).Inc()
	m.ChartRenderSeconds.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveSelection counts a state selection.
func (m *Metrics) ObserveSelection(source string, known bool) {
	m.Selections.WithLabelValues(source, strconv.FormatBool(known)).Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPReqDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetDataset publishes the dataset shape.
func (m *Metrics) SetDataset(ds *dataset.Dataset) {
	join := ds.Join()
	m.JoinedRows.Set(float64(ds.Len()))
	m.CasesOnly.Set(float64(join.CasesOnly))
	m.HospitalOnly.Set(float64(join.HospitalOnly))
	m.States.Set(float64(len(ds.States())))
}
