package prediction

import (
	"context"
	"fmt"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	domsvc "github.com/Pulkit320/market-scope/internal/domain/service"
)

// ServiceMetadata describes the model behind a prediction service.
type ServiceMetadata struct {
	Name       string   `json:"name"`
	InputShape []int    `json:"input_shape"`
	Features   []string `json:"features,omitempty"`
}

type predictRequest struct {
	Window [][][]float64 `json:"window"`
}

type predictResponse struct {
	Probability *float64 `json:"probability"`
}

// RemotePredictor delegates inference to an HTTP prediction service.
type RemotePredictor struct {
	*HTTPServiceBase
	meta ServiceMetadata
}

// NewRemotePredictor asks the service for its metadata so the input shape is known up front.
func NewRemotePredictor(ctx context.Context, base *HTTPServiceBase) (*RemotePredictor, error) {
	var meta ServiceMetadata
	if err := base.GetJSON(ctx, "/metadata", &meta); err != nil {
		return nil, fmt.Errorf("fetch model metadata: %w", err)
	}
	if len(meta.InputShape) != 2 || meta.InputShape[0] <= 0 || meta.InputShape[1] <= 0 {
		return nil, fmt.Errorf("model metadata: input_shape must be [timesteps, features], got %v", meta.InputShape)
	}
	return &RemotePredictor{HTTPServiceBase: base, meta: meta}, nil
}

// InputShape returns (timesteps, features).
func (r *RemotePredictor) InputShape() (int, int) {
	return r.meta.InputShape[0], r.meta.InputShape[1]
}

func (r *RemotePredictor) Features() []string { return r.meta.Features }

func (r *RemotePredictor) Predict(ctx context.Context, w models.FeatureWindow) (float64, error) {
	steps, feats := r.InputShape()
	if shape := w.Shape(); shape[1] != steps || shape[2] != feats {
		return 0, fmt.Errorf("%w: window %v, service expects (1, %d, %d)", ErrShapeMismatch, shape, steps, feats)
	}

	// One call per asset; a failed call skips the asset.
	var resp predictResponse
	if err := r.PostJSON(ctx, "/predict", predictRequest{Window: w.Tensor()}, &resp); err != nil {
		return 0, err
	}
	if resp.Probability == nil {
		return 0, fmt.Errorf("predict response without probability")
	}
	return *resp.Probability, nil
}

func (r *RemotePredictor) Source() models.PredictionSource { return models.SourceRemote }

var _ domsvc.Predictor = (*RemotePredictor)(nil)
