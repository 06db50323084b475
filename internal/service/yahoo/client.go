package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	drepo "github.com/Pulkit320/market-scope/internal/domain/repository"
	"github.com/Pulkit320/market-scope/internal/service/ratelimit"
	xhttp "github.com/Pulkit320/market-scope/pkg/http"
	"github.com/Pulkit320/market-scope/pkg/util"
)

// ErrNoData is returned when the chart endpoint answers without usable bars.
var ErrNoData = errors.New("yahoo: no data")

// Client implements a HistoryProvider backed by the Yahoo Finance chart API.
type Client struct {
	baseURL   string
	userAgent string
	http      *xhttp.Client

	limiter      *ratelimit.Limiter
	capacity     float64
	refillPerSec float64
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit shares limiter across clients; requests wait for a token per host.
func WithRateLimit(l *ratelimit.Limiter, capacity, refillPerSec float64) Option {
	return func(c *Client) {
		c.limiter, c.capacity, c.refillPerSec = l, capacity, refillPerSec
	}
}

// WithUserAgent overrides the User-Agent header; the chart API rejects empty agents.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a chart API client rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "Mozilla/5.0 (compatible; market-scope/1.0)",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent(c.userAgent))
	return c
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []quote `json:"quote"`
	} `json:"indicators"`
}

type quote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// History fetches daily bars for ticker over q.Range.
func (c *Client) History(ctx context.Context, ticker string, q drepo.HistoryQuery) (models.PriceSeries, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.host(), c.capacity, c.refillPerSec); err != nil {
			return models.PriceSeries{}, fmt.Errorf("yahoo rate limit: %w", err)
		}
	}

	interval := drepo.NormalizeInterval(q.Interval)
	var resp chartResponse
	err := c.http.Do(ctx, xhttp.Request{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker),
		Query: url.Values{
			"range":    {q.Range},
			"interval": {string(interval)},
			"events":   {"history"},
		},
	}, &resp)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	if e := resp.Chart.Error; e != nil {
		return models.PriceSeries{}, fmt.Errorf("yahoo chart %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return toSeries(ticker, resp.Chart.Result[0])
}

func (c *Client) host() string {
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return c.baseURL
}

// toSeries drops bars without a close or with a null in any schema column, keys each
// bar by its exchange-local day, keeps the latest bar per day and orders oldest first.
func toSeries(ticker string, r chartResult) (models.PriceSeries, error) {
	if len(r.Indicators.Quote) == 0 || len(r.Timestamp) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	q := r.Indicators.Quote[0]
	loc := time.FixedZone("exchange", r.Meta.GMTOffset)

	present := map[models.Column][]*float64{
		models.ColumnOpen:   q.Open,
		models.ColumnHigh:   q.High,
		models.ColumnLow:    q.Low,
		models.ColumnClose:  q.Close,
		models.ColumnVolume: q.Volume,
	}
	var columns []models.Column
	for _, col := range models.KnownColumns {
		if len(present[col]) == len(r.Timestamp) {
			columns = append(columns, col)
		}
	}

	byDay := make(map[time.Time]models.PriceBar, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil || !complete(present, columns, i) {
			continue
		}
		day := time.Unix(ts, 0).In(loc)
		bar := models.PriceBar{
			Date:   util.DayUTC(day),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  decimal.NewFromFloat(*q.Close[i]),
			Volume: at(q.Volume, i),
		}
		byDay[bar.Date] = bar
	}
	if len(byDay) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}

	bars := make([]models.PriceBar, 0, len(byDay))
	for _, b := range byDay {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	symbol := r.Meta.Symbol
	if symbol == "" {
		symbol = ticker
	}
	return models.PriceSeries{Symbol: symbol, Columns: columns, Bars: bars}, nil
}

// complete reports whether bar i has a value in every schema column.
func complete(present map[models.Column][]*float64, columns []models.Column, i int) bool {
	for _, col := range columns {
		if present[col][i] == nil {
			return false
		}
	}
	return true
}

func at(values []*float64, i int) decimal.Decimal {
	if i >= len(values) || values[i] == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*values[i])
}

var _ drepo.HistoryProvider = (*Client)(nil)
