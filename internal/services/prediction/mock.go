package prediction

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	domsvc "github.com/Pulkit320/market-scope/internal/domain/service"
)

// MockPredictor returns uniform random probabilities. Its output carries no predictive meaning.
type MockPredictor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockPredictor seeds the generator; seed 0 seeds from the clock.
func NewMockPredictor(seed uint64) *MockPredictor {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &MockPredictor{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (m *MockPredictor) Predict(_ context.Context, _ models.FeatureWindow) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64(), nil
}

func (m *MockPredictor) Source() models.PredictionSource { return models.SourceMock }

var _ domsvc.Predictor = (*MockPredictor)(nil)
