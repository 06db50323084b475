package repository

import (
	"context"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

// HistoryQuery describes the requested lookback.
type HistoryQuery struct {
	Range    string // e.g. "3mo"
	Interval string // e.g. "1d"
}

// HistoryProvider supplies the daily series of one ticker. One call per asset per run.
type HistoryProvider interface {
	History(ctx context.Context, ticker string, q HistoryQuery) (models.PriceSeries, error)
}

// ExportSink receives a finished run after the document file has been written.
type ExportSink interface {
	Name() string
	Publish(ctx context.Context, run models.ExportRun) error
	Close() error
}

type Metrics interface {
	RecordAssetExported(assetID string)
	RecordAssetSkipped(assetID string, reason models.SkipReason)
	RecordLastPrice(symbol string, price float64)
	RecordPrediction(assetID string, p models.Prediction)
	RecordPredictorDegraded(degraded bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
