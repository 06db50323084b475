package features

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

var ohlc = []models.Column{models.ColumnOpen, models.ColumnHigh, models.ColumnLow, models.ColumnClose}

func makeSeries(n int, closeAt func(i int) float64) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, n)
	for i := range bars {
		c := closeAt(i)
		bars[i] = models.PriceBar{
			Date:  start.AddDate(0, 0, i),
			Open:  decimal.NewFromFloat(c - 1),
			High:  decimal.NewFromFloat(c + 2),
			Low:   decimal.NewFromFloat(c - 3),
			Close: decimal.NewFromFloat(c),
		}
	}
	return models.PriceSeries{Symbol: "BTC-USD", Columns: ohlc, Bars: bars}
}

func TestWindow_ShapeAndRange(t *testing.T) {
	series := makeSeries(90, func(i int) float64 { return 100 + float64(i*i%37) })
	cols := []models.Column{models.ColumnClose, models.ColumnHigh, models.ColumnLow}

	w, err := Window(series, cols, DefaultWindowSize)
	require.NoError(t, err)

	assert.Equal(t, [3]int{1, 60, 3}, w.Shape())
	tensor := w.Tensor()
	require.Len(t, tensor, 1)
	require.Len(t, tensor[0], 60)
	for _, row := range tensor[0] {
		require.Len(t, row, 3)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestWindow_ScalesOverTrailingRowsOnly(t *testing.T) {
	// The first 30 bars hold extreme values that must not influence scaling.
	series := makeSeries(90, func(i int) float64 {
		if i < 30 {
			return 1_000_000
		}
		return float64(i)
	})

	w, err := Window(series, []models.Column{models.ColumnClose}, 60)
	require.NoError(t, err)

	assert.Equal(t, 0.0, w.Values[0][0])
	assert.Equal(t, 1.0, w.Values[59][0])
	assert.InDelta(t, 1.0/59.0, w.Values[1][0], 1e-12)
}

func TestWindow_ColumnOrderFollowsRequest(t *testing.T) {
	series := makeSeries(5, func(i int) float64 { return float64(10 + i) })
	series.Bars[4].High = decimal.NewFromInt(100) // only High peaks on the last row

	w, err := Window(series, []models.Column{models.ColumnHigh, models.ColumnClose}, 5)
	require.NoError(t, err)

	assert.Equal(t, []models.Column{models.ColumnHigh, models.ColumnClose}, w.Columns)
	assert.Equal(t, 1.0, w.Values[4][0])
	assert.InDelta(t, (12.0-12.0)/(100.0-12.0), w.Values[0][0], 1e-12)
	assert.Equal(t, 1.0, w.Values[4][1])
}

func TestWindow_ConstantColumnScalesToZero(t *testing.T) {
	series := makeSeries(60, func(int) float64 { return 42 })

	w, err := Window(series, []models.Column{models.ColumnClose}, 60)
	require.NoError(t, err)
	for _, row := range w.Values {
		assert.Equal(t, 0.0, row[0])
	}
}

func TestWindow_InsufficientData(t *testing.T) {
	series := makeSeries(59, func(i int) float64 { return float64(i) })

	_, err := Window(series, []models.Column{models.ColumnClose}, 60)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestWindow_MissingColumn(t *testing.T) {
	series := makeSeries(60, func(i int) float64 { return float64(i) })

	_, err := Window(series, []models.Column{models.ColumnClose, models.ColumnVolume}, 60)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestWindow_DoesNotMutateSeries(t *testing.T) {
	series := makeSeries(60, func(i int) float64 { return float64(i) })
	before := series.Bars[10].Close

	_, err := Window(series, []models.Column{models.ColumnClose}, 60)
	require.NoError(t, err)
	assert.True(t, before.Equal(series.Bars[10].Close))
}

func TestColumns(t *testing.T) {
	cols, err := Columns([]string{"Close", "High", "Low"})
	require.NoError(t, err)
	assert.Equal(t, []models.Column{models.ColumnClose, models.ColumnHigh, models.ColumnLow}, cols)

	_, err = Columns([]string{"Close", "Adj Close"})
	assert.Error(t, err)
}
