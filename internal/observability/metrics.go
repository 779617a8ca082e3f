package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tsproc"

// Metrics holds the Prometheus collectors for command processing.
type Metrics struct {
	CommandsExecuted *prometheus.CounterVec   // labels: command, severity
	CommandDuration  *prometheus.HistogramVec // labels: command
	Runs             *prometheus.CounterVec   // labels: outcome={success,warning,failure,aborted}
	RunsInProgress   prometheus.Gauge
	SeriesAppended   prometheus.Counter

	// Remote data supplier metrics.
	WebServiceRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	WebServiceCache    *prometheus.CounterVec // labels: result={hit,miss}
	WebServiceDuration prometheus.Histogram
	WebServiceEnabled  prometheus.Gauge

	DecodeSkipped prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		CommandsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_executed_total",
			Help:      "Commands run, by command name and resulting severity.",
		}, []string{"command", "severity"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of a single command run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"command"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Command list runs by outcome.",
		}, []string{"outcome"}),
		RunsInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_progress",
			Help:      "Command list runs currently executing.",
		}),
		SeriesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeseries_appended_total",
			Help:      "Time series records appended to result registries.",
		}),
		WebServiceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webservice_requests_total",
			Help:      "Remote web service requests by outcome.",
		}, []string{"outcome"}),
		WebServiceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webservice_cache_total",
			Help:      "Web service document cache lookups by result.",
		}, []string{"result"}),
		WebServiceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webservice_request_duration_seconds",
			Help:      "Remote web service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WebServiceEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "webservice_enabled",
			Help:      "1 when the remote web service supplier is configured, 0 otherwise.",
		}),
		DecodeSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_values_skipped_total",
			Help:      "Decoded values skipped because the timestamp or number did not parse.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already registered"
// panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CommandsExecuted,
		m.CommandDuration,
		m.Runs,
		m.RunsInProgress,
		m.SeriesAppended,
		m.WebServiceRequests,
		m.WebServiceCache,
		m.WebServiceDuration,
		m.WebServiceEnabled,
		m.DecodeSkipped,
	}
}
