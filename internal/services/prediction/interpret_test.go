package prediction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

func TestInterpret_Boundaries(t *testing.T) {
	tests := []struct {
		p          float64
		direction  models.Direction
		confidence int
		label      models.Label
	}{
		{0.5, models.DirectionDown, 50, models.LabelBearish},
		{1.0, models.DirectionUp, 100, models.LabelBullish},
		{0.0, models.DirectionDown, 100, models.LabelBearish},
		{0.73, models.DirectionUp, 96, models.LabelBullish},
		{0.6, models.DirectionUp, 70, models.LabelBullish},
		{0.75, models.DirectionUp, 50, models.LabelBullish},
		{0.24, models.DirectionDown, 52, models.LabelBearish},
		{0.501, models.DirectionUp, 50, models.LabelBullish},
	}
	for _, tt := range tests {
		got := Interpret(tt.p, models.SourceModel)
		assert.Equal(t, tt.direction, got.Direction, "p=%v", tt.p)
		assert.Equal(t, tt.confidence, got.Confidence, "p=%v", tt.p)
		assert.Equal(t, tt.label, got.Label, "p=%v", tt.p)
		assert.Equal(t, tt.p, got.Probability)
		assert.Equal(t, models.SourceModel, got.Source)
	}
}

func TestInterpret_ConfidenceRangeAndLabelAgreement(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		p := float64(i) / 1000
		got := Interpret(p, models.SourceMock)

		assert.GreaterOrEqual(t, got.Confidence, 50)
		assert.LessOrEqual(t, got.Confidence, 100)
		assert.Equal(t, got.Direction == models.DirectionUp, got.Label == models.LabelBullish)

		base := int(math.Round(math.Abs(p-0.5) * 200))
		if base < ConfidenceFloor {
			assert.Equal(t, base+ConfidenceFloor, got.Confidence)
		} else {
			assert.Equal(t, base, got.Confidence)
		}
	}
}

func TestNormalize(t *testing.T) {
	p, err := Normalize(1.3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = Normalize(-0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)

	p, err = Normalize(0.42)
	require.NoError(t, err)
	assert.Equal(t, 0.42, p)

	_, err = Normalize(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidProbability)
}
