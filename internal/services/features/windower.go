package features

import (
	"errors"
	"fmt"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

// DefaultWindowSize is the number of trailing bars fed to the model.
const DefaultWindowSize = 60

var (
	ErrInsufficientData = errors.New("insufficient history for window")
	ErrMissingColumn    = errors.New("feature column not supplied by provider")
)

// Window takes the trailing size bars of series restricted to columns (in that order)
// and min-max scales every column into [0,1] over exactly those rows.
//
// The scaler is fit per call and never persisted, so scaled values are not comparable
// across assets or runs. A constant column (max == min) scales to 0.
func Window(series models.PriceSeries, columns []models.Column, size int) (models.FeatureWindow, error) {
	if size <= 0 {
		return models.FeatureWindow{}, fmt.Errorf("window size must be positive, got %d", size)
	}
	if len(series.Bars) < size {
		return models.FeatureWindow{}, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(series.Bars), size)
	}
	for _, c := range columns {
		if !series.HasColumn(c) {
			return models.FeatureWindow{}, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	bars := series.Tail(size)
	values := make([][]float64, size)
	for i, b := range bars {
		row := make([]float64, len(columns))
		for j, c := range columns {
			v, _ := b.Value(c)
			row[j] = v.InexactFloat64()
		}
		values[i] = row
	}

	for j := range columns {
		lo, hi := values[0][j], values[0][j]
		for i := 1; i < size; i++ {
			if v := values[i][j]; v < lo {
				lo = v
			} else if v > hi {
				hi = v
			}
		}
		span := hi - lo
		for i := 0; i < size; i++ {
			if span == 0 {
				values[i][j] = 0
				continue
			}
			values[i][j] = (values[i][j] - lo) / span
		}
	}

	cols := make([]models.Column, len(columns))
	copy(cols, columns)
	return models.FeatureWindow{Columns: cols, Values: values}, nil
}

// Columns converts configured feature names into provider columns.
func Columns(names []string) ([]models.Column, error) {
	out := make([]models.Column, 0, len(names))
	for _, n := range names {
		c := models.Column(n)
		if !models.IsKnownColumn(c) {
			return nil, fmt.Errorf("unknown feature column '%s'", n)
		}
		out = append(out, c)
	}
	return out, nil
}
