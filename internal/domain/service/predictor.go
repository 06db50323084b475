package service

import (
	"context"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

// Predictor maps a scaled feature window to the probability that the next move is up.
type Predictor interface {
	Predict(ctx context.Context, w models.FeatureWindow) (float64, error)
	Source() models.PredictionSource
}
