package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column names one field of a daily bar.
type Column string

const (
	ColumnOpen   Column = "Open"
	ColumnHigh   Column = "High"
	ColumnLow    Column = "Low"
	ColumnClose  Column = "Close"
	ColumnVolume Column = "Volume"
)

// KnownColumns is the full schema any history provider can supply.
var KnownColumns = []Column{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// IsKnownColumn reports whether c belongs to the provider schema.
func IsKnownColumn(c Column) bool {
	for _, k := range KnownColumns {
		if k == c {
			return true
		}
	}
	return false
}

// PriceBar is one trading day. Date is UTC midnight of the exchange-local calendar day.
type PriceBar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Value returns the bar's value for column c.
func (b PriceBar) Value(c Column) (decimal.Decimal, bool) {
	switch c {
	case ColumnOpen:
		return b.Open, true
	case ColumnHigh:
		return b.High, true
	case ColumnLow:
		return b.Low, true
	case ColumnClose:
		return b.Close, true
	case ColumnVolume:
		return b.Volume, true
	default:
		return decimal.Zero, false
	}
}

// PriceSeries is a daily series ordered oldest to newest with unique dates.
// Columns lists the fields the provider actually supplied.
type PriceSeries struct {
	Symbol  string
	Columns []Column
	Bars    []PriceBar
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// HasColumn reports whether the provider supplied column c.
func (s PriceSeries) HasColumn(c Column) bool {
	for _, have := range s.Columns {
		if have == c {
			return true
		}
	}
	return false
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Tail returns the trailing n bars (fewer when the series is shorter).
func (s PriceSeries) Tail(n int) []PriceBar {
	if n <= 0 {
		return nil
	}
	if n >= len(s.Bars) {
		return s.Bars
	}
	return s.Bars[len(s.Bars)-n:]
}
