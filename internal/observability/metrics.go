package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trashrake"

// Metrics holds the Prometheus counters, histograms, and gauges for the monitor.
type Metrics struct {
	PollerRunning prometheus.Gauge

	// Fetch cycle metrics.
	CyclesTotal   *prometheus.CounterVec // labels: outcome={accepted,discarded,exhausted}
	FetchAttempts *prometheus.CounterVec // labels: result={success,error}
	FetchDuration prometheus.Histogram

	// Parse metrics.
	RowsParsed  prometheus.Counter
	RowsDropped prometheus.Counter
	HistorySize prometheus.Gauge

	// Alert metrics.
	AlertsTotal  *prometheus.CounterVec // labels: event, outcome={sent,suppressed,failed,disabled}
	SoundsPlayed prometheus.Counter

	// Downstream metrics.
	PublishErrors    *prometheus.CounterVec // labels: sink
	WebsocketClients prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PollerRunning,
		m.CyclesTotal,
		m.FetchAttempts,
		m.FetchDuration,
		m.RowsParsed,
		m.RowsDropped,
		m.HistorySize,
		m.AlertsTotal,
		m.SoundsPlayed,
		m.PublishErrors,
		m.WebsocketClients,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 when the feed poller is active, 0 when shut down.",
		}),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cycles_total",
			Help:      "Fetch cycles by outcome.",
		}, []string{"outcome"}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Individual feed requests by result, including retries.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single feed request including parsing.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Feed rows accepted as records.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Feed rows dropped as header remnants or bad timestamps.",
		}),
		HistorySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_records",
			Help:      "Number of records in the current history.",
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alarm triggers by event and outbound outcome.",
		}, []string{"event", "outcome"}),
		SoundsPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_sounds_total",
			Help:      "Audible alarms played.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Snapshot publish failures by sink.",
		}, []string{"sink"}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected dashboard websocket clients.",
		}),
	}
}
