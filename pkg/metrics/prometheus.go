package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	drepo "github.com/Pulkit320/market-scope/internal/domain/repository"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	exported    *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	probability *prometheus.GaugeVec
	confidence  *prometheus.GaugeVec
	predictions *prometheus.CounterVec
	degraded    prometheus.Gauge
	latency     *prometheus.HistogramVec
}

// New creates a recorder on its own registry, so repeated construction never collides.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		exported: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_scope_assets_exported_total",
				Help: "Assets written to the export document",
			},
			[]string{"asset"},
		),
		skipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_scope_assets_skipped_total",
				Help: "Assets left out of the export document",
			},
			[]string{"asset", "reason"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_scope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "market_scope_last_price",
				Help: "Last exported price for a symbol",
			},
			[]string{"symbol"},
		),
		probability: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "market_scope_prediction_probability",
				Help: "Last predicted probability of an upward move",
			},
			[]string{"asset", "source"},
		),
		confidence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "market_scope_prediction_confidence",
				Help: "Last displayed confidence",
			},
			[]string{"asset"},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "market_scope_predictions_total",
				Help: "Predictions by direction and source",
			},
			[]string{"direction", "source"},
		),
		degraded: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "market_scope_predictor_degraded",
				Help: "1 when the run fell back to the mock predictor",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "market_scope_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Registry exposes the recorder's collectors, e.g. for promhttp or a Pushgateway.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) RecordAssetExported(assetID string) {
	r.exported.WithLabelValues(assetID).Inc()
}

func (r *Recorder) RecordAssetSkipped(assetID string, reason models.SkipReason) {
	r.skipped.WithLabelValues(assetID, string(reason)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordPrediction(assetID string, p models.Prediction) {
	r.probability.WithLabelValues(assetID, string(p.Source)).Set(p.Probability)
	r.confidence.WithLabelValues(assetID).Set(float64(p.Confidence))
	r.predictions.WithLabelValues(string(p.Direction), string(p.Source)).Inc()
}

func (r *Recorder) RecordPredictorDegraded(degraded bool) {
	if degraded {
		r.degraded.Set(1)
		return
	}
	r.degraded.Set(0)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Push sends the current values to a Pushgateway. A one-shot export has no scrape window.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

var _ drepo.Metrics = (*Recorder)(nil)
