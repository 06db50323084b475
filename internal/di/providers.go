package di

import (
	"context"
	"fmt"
	"time"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	"github.com/Pulkit320/market-scope/internal/domain/repository"
	domsvc "github.com/Pulkit320/market-scope/internal/domain/service"
	"github.com/Pulkit320/market-scope/internal/handler/api"
	internalrepo "github.com/Pulkit320/market-scope/internal/repository"
	"github.com/Pulkit320/market-scope/internal/service/cache"
	"github.com/Pulkit320/market-scope/internal/service/ratelimit"
	"github.com/Pulkit320/market-scope/internal/service/yahoo"
	"github.com/Pulkit320/market-scope/internal/services/export"
	"github.com/Pulkit320/market-scope/internal/services/features"
	"github.com/Pulkit320/market-scope/internal/services/prediction"
	"github.com/Pulkit320/market-scope/internal/usecase"
	pkgch "github.com/Pulkit320/market-scope/pkg/clickhouse"
	"github.com/Pulkit320/market-scope/pkg/config"
	xhttp "github.com/Pulkit320/market-scope/pkg/http"
	pkgkafka "github.com/Pulkit320/market-scope/pkg/kafka"
	"github.com/Pulkit320/market-scope/pkg/logger"
	"github.com/Pulkit320/market-scope/pkg/metrics"
	"github.com/Pulkit320/market-scope/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideColumns resolves the configured feature names.
func ProvideColumns(cfg *config.Config) ([]models.Column, error) {
	return features.Columns(cfg.Pipeline.Features)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when nothing reads or writes ClickHouse.
func ProvideClickHouseClient(cfg *config.Config, l *logger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.UsesClickHouse() {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ClickHouse.DialTimeout)
	defer cancel()
	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	l.Info("clickhouse connected",
		logger.String("host", cfg.ClickHouse.Host),
		logger.String("database", cfg.ClickHouse.Database),
	)

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", logger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideHistoryStore creates the byte store behind the history cache, or nil when caching is off.
func ProvideHistoryStore(cfg *config.Config, l *logger.Logger) (cache.BytesCache, func(), error) {
	c := cfg.Provider.Cache
	var (
		store cache.BytesCache
		err   error
	)
	switch c.Type {
	case "memory":
		store = cache.NewTTLCache()
	case "redis", "layered":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		})
		if err == nil {
			store = rc
			if c.Type == "layered" {
				store = cache.NewLayeredCache(rc, c.MemoryTTL)
			}
		}
	case "badger":
		var bc *cache.BadgerCache
		bc, err = cache.NewBadgerCache(c.Badger.Dir)
		store = bc
	default:
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s history cache: %w", c.Type, err)
	}
	l.Info("history cache enabled", logger.String("type", c.Type), logger.Duration("ttl", c.TTL))

	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("history cache close error", logger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideHistoryProvider selects the market data source and wraps it in the cache when one is configured.
func ProvideHistoryProvider(
	cfg *config.Config,
	ch *pkgch.Client,
	store cache.BytesCache,
	l *logger.Logger,
) (repository.HistoryProvider, error) {
	var provider repository.HistoryProvider
	switch cfg.Provider.Type {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse provider needs a clickhouse client")
		}
		provider = internalrepo.NewCHHistoryProvider(ch.DB(), cfg.ClickHouse.Database, cfg.ClickHouse.CandlesTable, l)
	default:
		y := cfg.Provider.Yahoo
		provider = yahoo.New(y.BaseURL, y.Timeout,
			yahoo.WithUserAgent(y.UserAgent),
			yahoo.WithRateLimit(ratelimit.New(), y.RateLimit.Capacity, y.RateLimit.RefillPerSec),
		)
	}

	if store == nil {
		return provider, nil
	}
	return cache.NewHistoryCache(provider, store, cfg.Provider.Cache.TTL, l), nil
}

// ProvidePredictor loads the model once for the run, degrading to the mock predictor when unavailable.
func ProvidePredictor(cfg *config.Config, cols []models.Column, l *logger.Logger) (domsvc.Predictor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Model.Timeout)
	defer cancel()
	return prediction.Load(ctx, prediction.LoadOptions{
		Path:       cfg.Model.Path,
		ServiceURL: cfg.Model.ServiceURL,
		Timeout:    cfg.Model.Timeout,
		Seed:       cfg.Model.Seed,
		WindowSize: cfg.Pipeline.WindowSize,
		Features:   cols,
	}, l)
}

// ProvideWriter creates the export file writer.
func ProvideWriter(cfg *config.Config) *export.Writer {
	return export.NewWriter(cfg.Output.Path,
		export.WithIndent(cfg.Output.Indent),
		export.WithMockMarker(cfg.Output.MarkMock),
	)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when the Kafka sink is disabled.
func ProvideKafkaProducer(cfg *config.Config, rec *metrics.Recorder) (*pkgkafka.Producer, error) {
	if !cfg.Sinks.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(rec.Registry()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSinks builds the optional export sinks. Closing a sink releases its transport.
func ProvideSinks(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	w *export.Writer,
	l *logger.Logger,
) ([]repository.ExportSink, func(), error) {
	var sinks []repository.ExportSink
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaRecordPublisher(producer, cfg.Sinks.Kafka.Topic, w.EncodeOptions()))
	}
	if cfg.Sinks.ClickHouse.Enabled {
		if ch == nil {
			return nil, nil, fmt.Errorf("clickhouse sink needs a clickhouse client")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ch.InitSchema(ctx, internalrepo.PredictionsSchema(cfg.ClickHouse.Database, cfg.Sinks.ClickHouse.Table)); err != nil {
			if producer != nil {
				_ = producer.Close()
			}
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		sinks = append(sinks, internalrepo.NewCHPredictionStore(ch.DB(), cfg.ClickHouse.Database, cfg.Sinks.ClickHouse.Table))
	}

	cleanup := func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				l.Warn("sink close error", logger.String("sink", s.Name()), logger.Error(err))
			}
		}
	}
	return sinks, cleanup, nil
}

// ProvideExportPipeline creates the export use case.
func ProvideExportPipeline(
	cfg *config.Config,
	cols []models.Column,
	provider repository.HistoryProvider,
	predictor domsvc.Predictor,
	w *export.Writer,
	sinks []repository.ExportSink,
	rec *metrics.Recorder,
	l *logger.Logger,
) *usecase.ExportPipeline {
	assets := make([]models.AssetSpec, len(cfg.Assets))
	for i, a := range cfg.Assets {
		assets[i] = models.AssetSpec{Ticker: a.Ticker, ID: a.ID, Name: a.Name, Symbol: a.Symbol}
	}
	return usecase.NewExportPipeline(usecase.PipelineOptions{
		Assets:        assets,
		Query:         repository.HistoryQuery{Range: cfg.Provider.Range, Interval: cfg.Provider.Interval},
		Columns:       cols,
		WindowSize:    cfg.Pipeline.WindowSize,
		HistoryLength: cfg.Pipeline.HistoryLength,
		FetchTimeout:  cfg.Pipeline.FetchTimeout,
	}, provider, predictor, w, sinks, rec, l)
}

// ProvideHTTPHandler creates the handler serving the exported document.
func ProvideHTTPHandler(cfg *config.Config, l *logger.Logger) xhttp.Handler {
	return api.NewAssetsEchoHandler(l, cfg.Output.Path)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	pipeline *usecase.ExportPipeline,
	rec *metrics.Recorder,
	h xhttp.Handler,
) *server.App {
	return server.New(cfg, l, pipeline, rec, h)
}
