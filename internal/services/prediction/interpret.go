package prediction

import (
	"errors"
	"math"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

// ConfidenceFloor is the display threshold below which confidence is lifted by the same amount.
// It is cosmetic: displayed confidence only ever ranges over 50..100, so weak and
// near-certain predictions share display bands. It is not a calibration.
const ConfidenceFloor = 50

var ErrInvalidProbability = errors.New("predictor returned NaN")

// Normalize clamps a raw predictor output into [0,1]. NaN is rejected.
func Normalize(p float64) (float64, error) {
	if math.IsNaN(p) {
		return 0, ErrInvalidProbability
	}
	return math.Min(1, math.Max(0, p)), nil
}

// Interpret maps a probability onto the dashboard's direction, confidence and label.
func Interpret(p float64, src models.PredictionSource) models.Prediction {
	dir := models.DirectionDown
	if p > 0.5 {
		dir = models.DirectionUp
	}

	confidence := int(math.Round(math.Abs(p-0.5) * 200))
	if confidence < ConfidenceFloor {
		confidence += ConfidenceFloor
	}

	label := models.LabelBearish
	if dir == models.DirectionUp {
		label = models.LabelBullish
	}

	return models.Prediction{
		Probability: p,
		Direction:   dir,
		Confidence:  confidence,
		Label:       label,
		Source:      src,
	}
}
