package cache

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	drepo "github.com/Pulkit320/market-scope/internal/domain/repository"
	"github.com/Pulkit320/market-scope/pkg/logger"
	"github.com/Pulkit320/market-scope/pkg/util"
)

// HistoryCache wraps a HistoryProvider with a read-through cache. Keys include the
// UTC day, so a cached series never outlives the trading day it was fetched on.
// Cache failures are logged and the upstream result is used.
type HistoryCache struct {
	next  drepo.HistoryProvider
	store BytesCache
	ttl   time.Duration
	log   *logger.Logger
	now   func() time.Time
}

func NewHistoryCache(next drepo.HistoryProvider, store BytesCache, ttl time.Duration, log *logger.Logger) *HistoryCache {
	return &HistoryCache{next: next, store: store, ttl: ttl, log: log, now: time.Now}
}

type cachedBar struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

type cachedSeries struct {
	Symbol  string          `json:"symbol"`
	Columns []models.Column `json:"columns"`
	Bars    []cachedBar     `json:"bars"`
}

// Key returns the cache key for ticker and q on the current UTC day.
func (h *HistoryCache) Key(ticker string, q drepo.HistoryQuery) string {
	return fmt.Sprintf("history:%s:%s:%s:%s", ticker, q.Range, q.Interval, util.FormatDate(h.now().UTC()))
}

func (h *HistoryCache) History(ctx context.Context, ticker string, q drepo.HistoryQuery) (models.PriceSeries, error) {
	key := h.Key(ticker, q)

	b, ok, err := h.store.GetBytes(ctx, key)
	switch {
	case err != nil:
		h.log.Warn("history cache read failed", logger.String("key", key), logger.Error(err))
	case ok:
		series, err := decodeSeries(b)
		if err == nil {
			h.log.Debug("history cache hit", logger.String("key", key))
			return series, nil
		}
		h.log.Warn("history cache entry unreadable", logger.String("key", key), logger.Error(err))
	}

	series, err := h.next.History(ctx, ticker, q)
	if err != nil {
		return models.PriceSeries{}, err
	}

	if b, err := encodeSeries(series); err != nil {
		h.log.Warn("history cache encode failed", logger.String("key", key), logger.Error(err))
	} else if err := h.store.SetBytes(ctx, key, b, h.ttl); err != nil {
		h.log.Warn("history cache write failed", logger.String("key", key), logger.Error(err))
	}
	return series, nil
}

func encodeSeries(s models.PriceSeries) ([]byte, error) {
	c := cachedSeries{Symbol: s.Symbol, Columns: s.Columns, Bars: make([]cachedBar, len(s.Bars))}
	for i, b := range s.Bars {
		c.Bars[i] = cachedBar{
			Date:   util.FormatDate(b.Date),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return json.Marshal(c)
}

func decodeSeries(b []byte) (models.PriceSeries, error) {
	var c cachedSeries
	if err := json.Unmarshal(b, &c); err != nil {
		return models.PriceSeries{}, err
	}
	bars := make([]models.PriceBar, len(c.Bars))
	for i, cb := range c.Bars {
		date, err := util.ParseDate(cb.Date)
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("bar %d: %w", i, err)
		}
		bars[i] = models.PriceBar{
			Date:   date,
			Open:   cb.Open,
			High:   cb.High,
			Low:    cb.Low,
			Close:  cb.Close,
			Volume: cb.Volume,
		}
	}
	return models.PriceSeries{Symbol: c.Symbol, Columns: c.Columns, Bars: bars}, nil
}

var _ drepo.HistoryProvider = (*HistoryCache)(nil)
