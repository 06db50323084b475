package export

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

// DefaultHistoryLength is the number of trailing closes charted per asset.
const DefaultHistoryLength = 30

// ErrNoChangeBasis means the 24h change cannot be computed: fewer than two bars or a zero previous close.
var ErrNoChangeBasis = errors.New("no basis for 24h change")

var hundred = decimal.NewFromInt(100)

// Assemble builds the record for one asset. It does not modify its inputs.
func Assemble(asset models.AssetSpec, series models.PriceSeries, prediction models.Prediction, historyLen int) (models.AssetRecord, error) {
	change, err := Change24h(series)
	if err != nil {
		return models.AssetRecord{}, fmt.Errorf("%s: %w", asset.Ticker, err)
	}
	last, _ := series.Last()
	if historyLen <= 0 {
		historyLen = DefaultHistoryLength
	}

	tail := series.Tail(historyLen)
	history := make([]models.HistoryPoint, len(tail))
	for i, b := range tail {
		history[i] = models.HistoryPoint{Date: b.Date, Value: b.Close.InexactFloat64()}
	}

	return models.AssetRecord{
		ID:         asset.ID,
		Symbol:     asset.DisplaySymbol(),
		Name:       asset.Name,
		Price:      last.Close.InexactFloat64(),
		Change24h:  change.InexactFloat64(),
		Prediction: prediction,
		History:    history,
	}, nil
}

// Change24h returns the percent change between the last two closes.
func Change24h(series models.PriceSeries) (decimal.Decimal, error) {
	n := series.Len()
	if n < 2 {
		return decimal.Zero, fmt.Errorf("%w: %d bars", ErrNoChangeBasis, n)
	}
	last, prev := series.Bars[n-1].Close, series.Bars[n-2].Close
	if prev.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: previous close is zero", ErrNoChangeBasis)
	}
	return last.Sub(prev).Div(prev).Mul(hundred), nil
}
