// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Session lifecycle metrics
	SessionsCreated prometheus.Counter
	SessionsEnded   *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge

	// Tick metrics
	TicksProcessed     *prometheus.CounterVec
	ModeSelections     *prometheus.CounterVec
	BoosterActivations prometheus.Counter
	LimitedTicks       prometheus.Counter

	// Device metrics
	DeviceCommandsSent    prometheus.Counter
	DeviceCommandsFailed  prometheus.Counter
	DeviceCommandsSkipped prometheus.Counter

	// Market data metrics
	CandleFetchLatency prometheus.Histogram
	CandleFetchErrors  prometheus.Counter

	// Storage metrics
	JournalWriteErrors prometheus.Counter
	ArchiveWriteErrors prometheus.Counter

	// Health metrics
	LastSuccessfulTick prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "chartpulse"
	}

	return &Metrics{
		// Session lifecycle metrics
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Total number of sessions created",
		}),
		SessionsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "ended_total",
			Help:      "Total number of sessions ended by reason",
		}, []string{"reason"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Current number of active sessions",
		}),

		// Tick metrics
		TicksProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Total number of ticks processed by outcome",
		}, []string{"outcome"}),
		ModeSelections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "mode_selections_total",
			Help:      "Total number of mode selections by mode",
		}, []string{"mode"}),
		BoosterActivations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "booster_activations_total",
			Help:      "Total number of ticks with an active booster",
		}),
		LimitedTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "limited_ticks_total",
			Help:      "Total number of ticks altered by the safety pipeline",
		}),

		// Device metrics
		DeviceCommandsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "commands_sent_total",
			Help:      "Total number of commands delivered to the device",
		}),
		DeviceCommandsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "commands_failed_total",
			Help:      "Total number of command deliveries that failed",
		}),
		DeviceCommandsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "commands_skipped_total",
			Help:      "Total number of commands skipped by the rate gate",
		}),

		// Market data metrics
		CandleFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_latency_seconds",
			Help:      "Candle fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CandleFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_errors_total",
			Help:      "Total number of candle fetch failures",
		}),

		// Storage metrics
		JournalWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "journal_write_errors_total",
			Help:      "Total number of command journal write failures",
		}),
		ArchiveWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "archive_write_errors_total",
			Help:      "Total number of session archive write failures",
		}),

		// Health metrics
		LastSuccessfulTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of last successfully processed tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSessionCreated increments the sessions created counter.
func RecordSessionCreated() {
	DefaultMetrics.SessionsCreated.Inc()
}

// RecordSessionEnded increments the sessions ended counter for a reason.
func RecordSessionEnded(reason string) {
	DefaultMetrics.SessionsEnded.WithLabelValues(reason).Inc()
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(n int) {
	DefaultMetrics.ActiveSessions.Set(float64(n))
}

// RecordTick records a processed tick with its outcome.
func RecordTick(outcome string) {
	DefaultMetrics.TicksProcessed.WithLabelValues(outcome).Inc()
}

// RecordModeSelection increments the selection counter for a mode.
func RecordModeSelection(mode string) {
	DefaultMetrics.ModeSelections.WithLabelValues(mode).Inc()
}

// RecordBoosterActivation increments the booster activation counter.
func RecordBoosterActivation() {
	DefaultMetrics.BoosterActivations.Inc()
}

// RecordLimitedTick increments the safety-limited tick counter.
func RecordLimitedTick() {
	DefaultMetrics.LimitedTicks.Inc()
}

// RecordDeviceCommand records the outcome of one device delivery attempt.
func RecordDeviceCommand(err error) {
	if err != nil {
		DefaultMetrics.DeviceCommandsFailed.Inc()
		return
	}
	DefaultMetrics.DeviceCommandsSent.Inc()
}

// RecordDeviceCommandSkipped increments the gate-skip counter.
func RecordDeviceCommandSkipped() {
	DefaultMetrics.DeviceCommandsSkipped.Inc()
}

// RecordCandleFetch records candle fetch latency and failures.
func RecordCandleFetch(seconds float64, err error) {
	DefaultMetrics.CandleFetchLatency.Observe(seconds)
	if err != nil {
		DefaultMetrics.CandleFetchErrors.Inc()
	}
}

// RecordJournalError increments the journal write error counter.
func RecordJournalError() {
	DefaultMetrics.JournalWriteErrors.Inc()
}

// RecordArchiveError increments the archive write error counter.
func RecordArchiveError() {
	DefaultMetrics.ArchiveWriteErrors.Inc()
}

// RecordLastTick updates the last successful tick timestamp.
func RecordLastTick(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulTick.Set(float64(unixSeconds))
}
