package models

import "strings"

// AssetSpec is one configured instrument. It is defined once at startup and never mutated.
type AssetSpec struct {
	Ticker string // provider-qualified identifier, e.g. "BTC-USD"
	ID     string // stable lowercase slug used by the dashboard
	Name   string
	Symbol string // display symbol; derived from Ticker when empty
}

// DisplaySymbol returns Symbol, or the part of Ticker before the first '-'.
func (a AssetSpec) DisplaySymbol() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	if i := strings.IndexByte(a.Ticker, '-'); i > 0 {
		return a.Ticker[:i]
	}
	return a.Ticker
}
