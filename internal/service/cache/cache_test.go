package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	drepo "github.com/Pulkit320/market-scope/internal/domain/repository"
	"github.com/Pulkit320/market-scope/pkg/logger"
)

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: mr.Addr(), Prefix: "market-scope"})
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.GetBytes(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)
	assert.True(t, mr.Exists("market-scope:k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestLayeredCache_BackfillsMemoryFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	shared, err := NewRedisCache(ctx, RedisConfig{Addr: mr.Addr(), Prefix: "market-scope"})
	require.NoError(t, err)
	c := NewLayeredCache(shared, time.Minute)
	defer c.Close()

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Hour))
	assert.True(t, mr.Exists("market-scope:k"))

	// Served from memory once redis loses the key.
	mr.Del("market-scope:k")
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	// A value only present in redis is copied into memory on read.
	require.NoError(t, mr.Set("market-scope:other", "w"))
	b, ok, err = c.GetBytes(ctx, "other")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("w"), b)
	mr.Del("market-scope:other")
	_, ok, err = c.GetBytes(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = c.GetBytes(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerCache_GetSet(t *testing.T) {
	c, err := NewBadgerCache("")
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.GetBytes(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Hour))
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}

func TestBadgerCache_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := NewBadgerCache(dir)
	require.NoError(t, err)
	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Close())

	c, err = NewBadgerCache(dir)
	require.NoError(t, err)
	defer c.Close()
	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}

type countingProvider struct {
	calls  int
	series models.PriceSeries
	err    error
}

func (p *countingProvider) History(context.Context, string, drepo.HistoryQuery) (models.PriceSeries, error) {
	p.calls++
	return p.series, p.err
}

type failingStore struct{}

func (failingStore) GetBytes(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) SetBytes(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}

func (failingStore) Close() error { return nil }

func sampleSeries() models.PriceSeries {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return models.PriceSeries{
		Symbol:  "BTC-USD",
		Columns: []models.Column{models.ColumnClose, models.ColumnVolume},
		Bars: []models.PriceBar{
			{Date: d, Close: decimal.RequireFromString("64000.125"), Volume: decimal.NewFromInt(10)},
			{Date: d.AddDate(0, 0, 1), Close: decimal.RequireFromString("65000.5"), Volume: decimal.NewFromInt(12)},
		},
	}
}

var query = drepo.HistoryQuery{Range: "3mo", Interval: "1d"}

func TestHistoryCache_ReadThrough(t *testing.T) {
	upstream := &countingProvider{series: sampleSeries()}
	h := NewHistoryCache(upstream, NewTTLCache(), time.Hour, logger.NewNop())
	h.now = func() time.Time { return time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := h.History(ctx, "BTC-USD", query)
	require.NoError(t, err)
	second, err := h.History(ctx, "BTC-USD", query)
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, "history:BTC-USD:3mo:1d:2024-03-02", h.Key("BTC-USD", query))
	assert.Equal(t, first.Columns, second.Columns)
	require.Len(t, second.Bars, 2)
	assert.True(t, second.Bars[1].Close.Equal(first.Bars[1].Close))
	assert.Equal(t, first.Bars[0].Date, second.Bars[0].Date)
}

func TestHistoryCache_NewDayMisses(t *testing.T) {
	upstream := &countingProvider{series: sampleSeries()}
	h := NewHistoryCache(upstream, NewTTLCache(), 0, logger.NewNop())
	day := time.Date(2024, 3, 2, 23, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return day }

	_, err := h.History(context.Background(), "BTC-USD", query)
	require.NoError(t, err)
	day = day.Add(2 * time.Hour)
	_, err = h.History(context.Background(), "BTC-USD", query)
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.calls)
}

func TestHistoryCache_StoreFailureFallsThrough(t *testing.T) {
	upstream := &countingProvider{series: sampleSeries()}
	h := NewHistoryCache(upstream, failingStore{}, time.Hour, logger.NewNop())

	series, err := h.History(context.Background(), "BTC-USD", query)
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())
}

func TestHistoryCache_UpstreamErrorNotCached(t *testing.T) {
	upstream := &countingProvider{err: errors.New("boom")}
	store := NewTTLCache()
	h := NewHistoryCache(upstream, store, time.Hour, logger.NewNop())

	_, err := h.History(context.Background(), "BTC-USD", query)
	assert.Error(t, err)
	_, ok, _ := store.GetBytes(context.Background(), h.Key("BTC-USD", query))
	assert.False(t, ok)
}
