package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	symbolsScanned *prometheus.CounterVec
	signalsTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	quotaRemaining prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		symbolsScanned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsscreener_symbols_scanned_total",
				Help: "Symbols processed per scan, by outcome",
			},
			[]string{"result"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsscreener_signals_total",
				Help: "Signals generated, by direction",
			},
			[]string{"direction"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsscreener_errors_total",
				Help: "Per-symbol scan errors, by kind",
			},
			[]string{"kind"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newsscreener_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		quotaRemaining: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "newsscreener_news_quota_remaining",
				Help: "Remaining daily news API requests",
			},
		),
	}
}

// RecordSymbolScanned counts one screened symbol by outcome (ok, degraded, error).
func (r *Recorder) RecordSymbolScanned(result string) {
	r.symbolsScanned.WithLabelValues(result).Inc()
}

// RecordSignal counts a generated signal by direction.
func (r *Recorder) RecordSignal(direction string) {
	r.signalsTotal.WithLabelValues(direction).Inc()
}

// RecordError records a per-symbol scan error by kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// SetQuotaRemaining publishes the remaining daily news budget.
func (r *Recorder) SetQuotaRemaining(n float64) {
	r.quotaRemaining.Set(n)
}
