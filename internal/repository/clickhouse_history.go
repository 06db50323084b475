package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	domrepo "github.com/Pulkit320/market-scope/internal/domain/repository"
	applogger "github.com/Pulkit320/market-scope/pkg/logger"
	"github.com/Pulkit320/market-scope/pkg/util"
)

// CHHistoryProvider implements HistoryProvider over a ClickHouse table of daily candles.
type CHHistoryProvider struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

func NewCHHistoryProvider(db *sql.DB, database, table string, l *applogger.Logger) *CHHistoryProvider {
	return &CHHistoryProvider{db: db, table: database + "." + table, l: l, now: time.Now}
}

const dailyQuery = `
        SELECT day, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND day >= ?
        ORDER BY day ASC
    `

const weeklyQuery = `
        SELECT toStartOfWeek(day, 1) AS week,
               argMin(open, day), max(high), min(low), argMax(close, day), sum(volume)
        FROM %s
        WHERE symbol = ? AND day >= ?
        GROUP BY week
        ORDER BY week ASC
    `

// Query returns the statement for interval against table.
func Query(table string, interval domrepo.Interval) string {
	if interval == domrepo.Interval1wk {
		return fmt.Sprintf(weeklyQuery, table)
	}
	return fmt.Sprintf(dailyQuery, table)
}

func (s *CHHistoryProvider) History(ctx context.Context, ticker string, q domrepo.HistoryQuery) (models.PriceSeries, error) {
	start := time.Now()
	from, err := util.LookbackStart(util.DayUTC(s.now().UTC()), q.Range)
	if err != nil {
		return models.PriceSeries{}, err
	}
	interval := domrepo.NormalizeInterval(q.Interval)

	rows, err := s.db.QueryContext(ctx, Query(s.table, interval), ticker, from)
	if err != nil {
		s.l.Error("clickhouse history query error",
			applogger.String("table", s.table),
			applogger.String("symbol", ticker),
			applogger.Error(err),
		)
		return models.PriceSeries{}, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	bars := make([]models.PriceBar, 0, 128)
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return models.PriceSeries{}, fmt.Errorf("scan candle: %w", err)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return models.PriceSeries{}, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse history ok",
		applogger.String("table", s.table),
		applogger.String("symbol", ticker),
		applogger.String("interval", string(interval)),
		applogger.Int("rows", len(bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return newSeries(ticker, bars), nil
}

// newSeries gives every series its own column slice; callers may reorder it.
func newSeries(ticker string, bars []models.PriceBar) models.PriceSeries {
	return models.PriceSeries{
		Symbol:  ticker,
		Columns: append([]models.Column(nil), models.KnownColumns...),
		Bars:    bars,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBar(r scanner) (models.PriceBar, error) {
	var (
		day              time.Time
		o, h, lo, c, vol float64
	)
	if err := r.Scan(&day, &o, &h, &lo, &c, &vol); err != nil {
		return models.PriceBar{}, err
	}
	return models.PriceBar{
		Date:   util.DayUTC(day),
		Open:   decimal.NewFromFloat(o),
		High:   decimal.NewFromFloat(h),
		Low:    decimal.NewFromFloat(lo),
		Close:  decimal.NewFromFloat(c),
		Volume: decimal.NewFromFloat(vol),
	}, nil
}

var _ domrepo.HistoryProvider = (*CHHistoryProvider)(nil)
