package prediction

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

// tinyArtifact is a one-unit LSTM over one feature followed by a sigmoid dense head.
func tinyArtifact(steps int) Artifact {
	return Artifact{
		Name:       "tiny",
		InputShape: []int{steps, 1},
		Features:   []string{"Close"},
		Layers: []Layer{
			{
				Type:            "lstm",
				Units:           1,
				Kernel:          [][]float64{{0.5, -0.3, 0.8, 0.2}},
				RecurrentKernel: [][]float64{{0.1, 0.4, -0.6, 0.3}},
				Bias:            []float64{0.0, 1.0, 0.1, -0.1},
			},
			{Type: "dropout"},
			{
				Type:       "dense",
				Units:      1,
				Activation: "sigmoid",
				Kernel:     [][]float64{{2.0}},
				Bias:       []float64{-0.5},
			},
		},
	}
}

func window(values ...float64) models.FeatureWindow {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return models.FeatureWindow{Columns: []models.Column{models.ColumnClose}, Values: rows}
}

// referenceForward evaluates tinyArtifact by hand.
func referenceForward(xs []float64) float64 {
	sig := func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
	var h, c float64
	for _, x := range xs {
		i := sig(0.5*x + 0.1*h + 0.0)
		f := sig(-0.3*x + 0.4*h + 1.0)
		g := math.Tanh(0.8*x - 0.6*h + 0.1)
		o := sig(0.2*x + 0.3*h - 0.1)
		c = f*c + i*g
		h = o * math.Tanh(c)
	}
	return sig(2.0*h - 0.5)
}

func TestArtifactPredictor_ForwardPass(t *testing.T) {
	p, err := NewArtifactPredictor(tinyArtifact(3))
	require.NoError(t, err)

	xs := []float64{0.0, 0.5, 1.0}
	got, err := p.Predict(context.Background(), window(xs...))
	require.NoError(t, err)

	assert.InDelta(t, referenceForward(xs), got, 1e-12)
	assert.Equal(t, models.SourceModel, p.Source())
}

func TestArtifactPredictor_StackedReturnSequences(t *testing.T) {
	a := tinyArtifact(2)
	first := a.Layers[0]
	first.ReturnSequences = true
	a.Layers = append([]Layer{first}, a.Layers...)

	p, err := NewArtifactPredictor(a)
	require.NoError(t, err)

	got, err := p.Predict(context.Background(), window(0.2, 0.9))
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestArtifactPredictor_RejectsWrongWindow(t *testing.T) {
	p, err := NewArtifactPredictor(tinyArtifact(3))
	require.NoError(t, err)

	_, err = p.Predict(context.Background(), window(0.1, 0.2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestArtifact_InvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{"bad input shape", func(a *Artifact) { a.InputShape = []int{3} }},
		{"feature names disagree with shape", func(a *Artifact) { a.Features = []string{"Close", "High"} }},
		{"no layers", func(a *Artifact) { a.Layers = nil }},
		{"short kernel", func(a *Artifact) { a.Layers[0].Kernel = [][]float64{{1, 2, 3}} }},
		{"short bias", func(a *Artifact) { a.Layers[0].Bias = []float64{1} }},
		{"unknown activation", func(a *Artifact) { a.Layers[2].Activation = "softplus" }},
		{"unknown layer", func(a *Artifact) { a.Layers[1].Type = "conv1d" }},
		{"sequence output", func(a *Artifact) { a.Layers = a.Layers[:1]; a.Layers[0].ReturnSequences = true }},
		{"vector output", func(a *Artifact) {
			a.Layers[2].Units = 2
			a.Layers[2].Kernel = [][]float64{{1, 1}}
			a.Layers[2].Bias = []float64{0, 0}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tinyArtifact(3)
			tt.mutate(&a)
			_, err := NewArtifactPredictor(a)
			assert.Error(t, err)
		})
	}
}

func TestLoadArtifact_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	b, err := json.Marshal(tinyArtifact(3))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))

	p, err := LoadArtifact(path)
	require.NoError(t, err)
	steps, feats := p.InputShape()
	assert.Equal(t, 3, steps)
	assert.Equal(t, 1, feats)
	assert.Equal(t, []string{"Close"}, p.Features())
}

func TestLoadArtifact_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadArtifact(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("HDF\x00not json"), 0o644))
	_, err = LoadArtifact(garbage)
	assert.Error(t, err)
}
