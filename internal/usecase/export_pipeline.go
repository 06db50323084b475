package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	drepo "github.com/Pulkit320/market-scope/internal/domain/repository"
	domsvc "github.com/Pulkit320/market-scope/internal/domain/service"
	"github.com/Pulkit320/market-scope/internal/services/export"
	"github.com/Pulkit320/market-scope/internal/services/features"
	"github.com/Pulkit320/market-scope/internal/services/prediction"
	"github.com/Pulkit320/market-scope/pkg/logger"
)

// PipelineOptions fixes the per-run parameters of an ExportPipeline.
type PipelineOptions struct {
	Assets        []models.AssetSpec
	Query         drepo.HistoryQuery
	Columns       []models.Column
	WindowSize    int
	HistoryLength int
	FetchTimeout  time.Duration
}

// ExportPipeline turns each configured asset into an AssetRecord and writes the document.
// Assets are processed one at a time in configured order; a failing asset is skipped, never fatal.
type ExportPipeline struct {
	opts      PipelineOptions
	provider  drepo.HistoryProvider
	predictor domsvc.Predictor
	writer    *export.Writer
	sinks     []drepo.ExportSink
	metrics   drepo.Metrics
	log       *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewExportPipeline creates a new ExportPipeline instance.
func NewExportPipeline(
	opts PipelineOptions,
	provider drepo.HistoryProvider,
	predictor domsvc.Predictor,
	writer *export.Writer,
	sinks []drepo.ExportSink,
	metrics drepo.Metrics,
	log *logger.Logger,
) *ExportPipeline {
	if opts.WindowSize <= 0 {
		opts.WindowSize = features.DefaultWindowSize
	}
	if opts.HistoryLength <= 0 {
		opts.HistoryLength = export.DefaultHistoryLength
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	return &ExportPipeline{
		opts:      opts,
		provider:  provider,
		predictor: predictor,
		writer:    writer,
		sinks:     sinks,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Process runs one asset through fetch, window, predict and assemble.
func (p *ExportPipeline) Process(ctx context.Context, asset models.AssetSpec) models.AssetOutcome {
	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	series, err := p.provider.History(fetchCtx, asset.Ticker, p.opts.Query)
	cancel()
	p.metrics.RecordLatency("fetch", time.Since(start).Seconds())
	if err != nil {
		return models.Skipped(asset, models.SkipFetchFailed, err)
	}

	window, err := features.Window(series, p.opts.Columns, p.opts.WindowSize)
	switch {
	case errors.Is(err, features.ErrInsufficientData):
		return models.Skipped(asset, models.SkipInsufficientData, err)
	case errors.Is(err, features.ErrMissingColumn):
		return models.Skipped(asset, models.SkipMissingColumn, err)
	case err != nil:
		return models.Skipped(asset, models.SkipInsufficientData, err)
	}

	start = time.Now()
	raw, err := p.predictor.Predict(ctx, window)
	p.metrics.RecordLatency("predict", time.Since(start).Seconds())
	if err != nil {
		return models.Skipped(asset, models.SkipPredictFailed, err)
	}
	prob, err := prediction.Normalize(raw)
	if err != nil {
		return models.Skipped(asset, models.SkipPredictFailed, err)
	}
	pred := prediction.Interpret(prob, p.predictor.Source())

	rec, err := export.Assemble(asset, series, pred, p.opts.HistoryLength)
	if err != nil {
		return models.Skipped(asset, models.SkipNoChangeBasis, err)
	}
	return models.Recorded(rec)
}

// Run processes every asset, writes the document and hands the run to the sinks.
// Only cancellation and a failed file write are errors.
func (p *ExportPipeline) Run(ctx context.Context) (models.ExportRun, error) {
	run := models.ExportRun{
		ID:       p.newID(),
		Document: make(models.ExportDocument, 0, len(p.opts.Assets)),
		Degraded: p.predictor.Source() == models.SourceMock,
	}
	p.metrics.RecordPredictorDegraded(run.Degraded)
	log := p.log.With(logger.String("run_id", run.ID))
	log.Info("export run started",
		logger.Int("assets", len(p.opts.Assets)),
		logger.String("predictor", string(p.predictor.Source())),
	)

	start := time.Now()
	for _, asset := range p.opts.Assets {
		if err := ctx.Err(); err != nil {
			return run, fmt.Errorf("export run cancelled: %w", err)
		}

		out := p.Process(ctx, asset)
		if out.Skip != nil {
			run.Skipped = append(run.Skipped, *out.Skip)
			p.metrics.RecordAssetSkipped(asset.ID, out.Skip.Reason)
			log.Warn("asset skipped",
				logger.String("asset", asset.ID),
				logger.String("ticker", asset.Ticker),
				logger.String("reason", string(out.Skip.Reason)),
				logger.Error(out.Skip.Err),
			)
			continue
		}

		rec := *out.Record
		run.Document = append(run.Document, rec)
		p.metrics.RecordAssetExported(rec.ID)
		p.metrics.RecordLastPrice(rec.Symbol, rec.Price)
		p.metrics.RecordPrediction(rec.ID, rec.Prediction)
		log.Info("asset exported",
			logger.String("asset", rec.ID),
			logger.Float64("price", rec.Price),
			logger.Float64("change24h", rec.Change24h),
			logger.String("direction", string(rec.Prediction.Direction)),
			logger.Int("confidence", rec.Prediction.Confidence),
		)
	}

	run.GeneratedAt = p.now().UTC()
	if err := p.writer.Write(run.Document); err != nil {
		p.metrics.RecordError("write")
		return run, fmt.Errorf("write export document: %w", err)
	}
	p.metrics.RecordLatency("run", time.Since(start).Seconds())
	log.Info("export document written",
		logger.String("path", p.writer.Path()),
		logger.Int("records", len(run.Document)),
		logger.Int("skipped", len(run.Skipped)),
		logger.Bool("degraded", run.Degraded),
	)

	p.publish(ctx, log, run)
	return run, nil
}

func (p *ExportPipeline) publish(ctx context.Context, log *logger.Logger, run models.ExportRun) {
	for _, s := range p.sinks {
		start := time.Now()
		if err := s.Publish(ctx, run); err != nil {
			p.metrics.RecordError("sink_" + s.Name())
			log.Error("export sink failed", logger.String("sink", s.Name()), logger.Error(err))
			continue
		}
		p.metrics.RecordLatency("sink_"+s.Name(), time.Since(start).Seconds())
		log.Debug("export sink published", logger.String("sink", s.Name()))
	}
}
