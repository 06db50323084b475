package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	domsvc "github.com/Pulkit320/market-scope/internal/domain/service"
	"github.com/Pulkit320/market-scope/pkg/logger"
)

// ErrShapeMismatch means a model was loaded but expects a different input than the pipeline produces.
var ErrShapeMismatch = errors.New("model input shape mismatch")

// LoadOptions selects and configures the predictor for a run.
type LoadOptions struct {
	Path       string
	ServiceURL string
	Timeout    time.Duration
	Seed       uint64
	WindowSize int
	Features   []models.Column
}

type shaped interface {
	domsvc.Predictor
	InputShape() (int, int)
	Features() []string
}

// Load resolves the predictor once per run. A service URL wins over an artifact path.
// Any failure to obtain a model degrades to the mock predictor; only a model that loads
// but cannot accept the configured window is an error.
func Load(ctx context.Context, opts LoadOptions, log *logger.Logger) (domsvc.Predictor, error) {
	var (
		p   shaped
		err error
	)
	switch {
	case opts.ServiceURL != "":
		p, err = NewRemotePredictor(ctx, NewHTTPServiceBase(opts.ServiceURL, opts.Timeout))
	case opts.Path != "":
		p, err = LoadArtifact(opts.Path)
	default:
		log.Warn("no model configured, using mock predictor")
		return NewMockPredictor(opts.Seed), nil
	}
	if err != nil {
		log.Warn("model unavailable, falling back to mock predictor",
			logger.String("path", opts.Path),
			logger.String("service_url", opts.ServiceURL),
			logger.Error(err),
		)
		return NewMockPredictor(opts.Seed), nil
	}

	if err := checkShape(p, opts); err != nil {
		return nil, err
	}

	steps, feats := p.InputShape()
	log.Info("model loaded",
		logger.String("source", string(p.Source())),
		logger.Int("timesteps", steps),
		logger.Int("features", feats),
	)
	return p, nil
}

func checkShape(p shaped, opts LoadOptions) error {
	steps, feats := p.InputShape()
	if steps != opts.WindowSize || feats != len(opts.Features) {
		return fmt.Errorf("%w: model expects (%d, %d), pipeline produces (%d, %d)",
			ErrShapeMismatch, steps, feats, opts.WindowSize, len(opts.Features))
	}
	names := p.Features()
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(opts.Features) {
		return fmt.Errorf("%w: model lists %d feature names for %d inputs", ErrShapeMismatch, len(names), feats)
	}
	for i, c := range opts.Features {
		if names[i] != string(c) {
			return fmt.Errorf("%w: model feature %d is %s, pipeline produces %s",
				ErrShapeMismatch, i, names[i], c)
		}
	}
	return nil
}
