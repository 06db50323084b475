package di

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	"github.com/Pulkit320/market-scope/internal/service/cache"
	"github.com/Pulkit320/market-scope/internal/service/yahoo"
	"github.com/Pulkit320/market-scope/internal/services/prediction"
	"github.com/Pulkit320/market-scope/pkg/config"
	"github.com/Pulkit320/market-scope/pkg/logger"
	"github.com/Pulkit320/market-scope/pkg/metrics"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("environment: test\n"))
	require.NoError(t, err)
	cfg.Output.Path = filepath.Join(t.TempDir(), "market_data.json")
	cfg.Model.Path = filepath.Join(t.TempDir(), "absent.json")
	return cfg
}

func TestProvideHistoryStore(t *testing.T) {
	cfg := defaultConfig(t)
	l := logger.NewNop()

	store, cleanup, err := ProvideHistoryStore(cfg, l)
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, store)

	cfg.Provider.Cache.Type = "memory"
	store, cleanup, err = ProvideHistoryStore(cfg, l)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &cache.TTLCache{}, store)

	mr := miniredis.RunT(t)
	cfg.Provider.Cache.Type = "layered"
	cfg.Provider.Cache.Redis.Addr = mr.Addr()
	store, cleanup2, err := ProvideHistoryStore(cfg, l)
	require.NoError(t, err)
	defer cleanup2()
	assert.IsType(t, &cache.LayeredCache{}, store)

	cfg.Provider.Cache.Type = "badger"
	cfg.Provider.Cache.Badger.Dir = ""
	store, cleanup3, err := ProvideHistoryStore(cfg, l)
	require.NoError(t, err)
	defer cleanup3()
	assert.IsType(t, &cache.BadgerCache{}, store)

	cfg.Provider.Cache.Type = "redis"
	cfg.Provider.Cache.Redis.Addr = "127.0.0.1:1"
	_, _, err = ProvideHistoryStore(cfg, l)
	assert.Error(t, err)
}

func TestProvideHistoryProvider(t *testing.T) {
	cfg := defaultConfig(t)
	l := logger.NewNop()

	p, err := ProvideHistoryProvider(cfg, nil, nil, l)
	require.NoError(t, err)
	assert.IsType(t, &yahoo.Client{}, p)

	p, err = ProvideHistoryProvider(cfg, nil, cache.NewTTLCache(), l)
	require.NoError(t, err)
	assert.IsType(t, &cache.HistoryCache{}, p)

	cfg.Provider.Type = "clickhouse"
	_, err = ProvideHistoryProvider(cfg, nil, nil, l)
	assert.Error(t, err)
}

func TestProvideClickHouseClient_SkippedWhenUnused(t *testing.T) {
	client, cleanup, err := ProvideClickHouseClient(defaultConfig(t), logger.NewNop())
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, client)
}

func TestProvideSinks_DisabledByDefault(t *testing.T) {
	cfg := defaultConfig(t)

	producer, err := ProvideKafkaProducer(cfg, metrics.New())
	require.NoError(t, err)
	assert.Nil(t, producer)

	sinks, cleanup, err := ProvideSinks(cfg, producer, nil, ProvideWriter(cfg), logger.NewNop())
	require.NoError(t, err)
	cleanup()
	assert.Empty(t, sinks)

	cfg.Sinks.ClickHouse.Enabled = true
	_, _, err = ProvideSinks(cfg, nil, nil, ProvideWriter(cfg), logger.NewNop())
	assert.Error(t, err)
}

func TestProvideKafkaProducer_Enabled(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Sinks.Kafka.Enabled = true
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	producer, err := ProvideKafkaProducer(cfg, metrics.New())
	require.NoError(t, err)
	require.NotNil(t, producer)
	require.NoError(t, producer.Close())
}

func TestProvidePredictor_FallsBackToMock(t *testing.T) {
	cfg := defaultConfig(t)
	cols, err := ProvideColumns(cfg)
	require.NoError(t, err)
	assert.Equal(t, []models.Column{models.ColumnClose, models.ColumnHigh, models.ColumnLow}, cols)

	p, err := ProvidePredictor(cfg, cols, logger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &prediction.MockPredictor{}, p)
	assert.Equal(t, models.SourceMock, p.Source())
}

func TestProvideExportPipeline_FromConfig(t *testing.T) {
	cfg := defaultConfig(t)
	l := logger.NewNop()
	cols, err := ProvideColumns(cfg)
	require.NoError(t, err)

	provider, err := ProvideHistoryProvider(cfg, nil, nil, l)
	require.NoError(t, err)
	predictor, err := ProvidePredictor(cfg, cols, l)
	require.NoError(t, err)
	rec := metrics.New()

	pipeline := ProvideExportPipeline(cfg, cols, provider, predictor, ProvideWriter(cfg), nil, rec, l)
	app := ProvideApp(cfg, l, pipeline, rec, ProvideHTTPHandler(cfg, l))
	assert.NotNil(t, app)
}
