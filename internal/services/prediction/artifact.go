package prediction

import (
	"context"
	"fmt"
	"math"
	"os"

	json "github.com/goccy/go-json"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	domsvc "github.com/Pulkit320/market-scope/internal/domain/service"
)

// Artifact is the JSON export of a trained Keras sequence classifier.
// LSTM weights keep Keras' gate order: input, forget, cell, output.
type Artifact struct {
	Name       string   `json:"name"`
	InputShape []int    `json:"input_shape"` // [timesteps, features]
	Features   []string `json:"features,omitempty"`
	Layers     []Layer  `json:"layers"`
}

type Layer struct {
	Type            string      `json:"type"` // lstm | dense | dropout
	Units           int         `json:"units"`
	Activation      string      `json:"activation,omitempty"`
	ReturnSequences bool        `json:"return_sequences,omitempty"`
	Kernel          [][]float64 `json:"kernel,omitempty"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias            []float64   `json:"bias,omitempty"`
}

// ArtifactPredictor evaluates a loaded Artifact in-process. It is read-only after load.
type ArtifactPredictor struct {
	artifact Artifact
}

// LoadArtifact reads and checks a model artifact.
func LoadArtifact(path string) (*ArtifactPredictor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := a.check(); err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return &ArtifactPredictor{artifact: a}, nil
}

// NewArtifactPredictor wraps an in-memory artifact.
func NewArtifactPredictor(a Artifact) (*ArtifactPredictor, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	return &ArtifactPredictor{artifact: a}, nil
}

// InputShape returns (timesteps, features).
func (p *ArtifactPredictor) InputShape() (int, int) {
	return p.artifact.InputShape[0], p.artifact.InputShape[1]
}

// Features returns the feature names the model was trained on, if recorded.
func (p *ArtifactPredictor) Features() []string { return p.artifact.Features }

func (p *ArtifactPredictor) Predict(ctx context.Context, w models.FeatureWindow) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	steps, feats := p.InputShape()
	if shape := w.Shape(); shape[1] != steps || shape[2] != feats {
		return 0, fmt.Errorf("%w: window %v, model expects (1, %d, %d)", ErrShapeMismatch, shape, steps, feats)
	}

	seq := w.Values
	var vec []float64
	for _, l := range p.artifact.Layers {
		switch l.Type {
		case "lstm":
			out, last := runLSTM(l, seq)
			if l.ReturnSequences {
				seq = out
			} else {
				seq, vec = nil, last
			}
		case "dense":
			vec = runDense(l, vec)
		}
	}
	return vec[0], nil
}

func (p *ArtifactPredictor) Source() models.PredictionSource { return models.SourceModel }

// check validates layer dimensions against the declared input shape.
func (a Artifact) check() error {
	if len(a.InputShape) != 2 || a.InputShape[0] <= 0 || a.InputShape[1] <= 0 {
		return fmt.Errorf("input_shape must be [timesteps, features], got %v", a.InputShape)
	}
	if len(a.Features) > 0 && len(a.Features) != a.InputShape[1] {
		return fmt.Errorf("features lists %d names for %d inputs", len(a.Features), a.InputShape[1])
	}
	if len(a.Layers) == 0 {
		return fmt.Errorf("no layers")
	}

	in, sequence := a.InputShape[1], true
	for i, l := range a.Layers {
		switch l.Type {
		case "dropout":
			continue
		case "lstm":
			if !sequence {
				return fmt.Errorf("layer %d: lstm needs sequence input", i)
			}
			if err := checkMatrix(l.Kernel, in, 4*l.Units); err != nil {
				return fmt.Errorf("layer %d kernel: %w", i, err)
			}
			if err := checkMatrix(l.RecurrentKernel, l.Units, 4*l.Units); err != nil {
				return fmt.Errorf("layer %d recurrent_kernel: %w", i, err)
			}
			if len(l.Bias) != 4*l.Units {
				return fmt.Errorf("layer %d bias: want %d values, got %d", i, 4*l.Units, len(l.Bias))
			}
			in, sequence = l.Units, l.ReturnSequences
		case "dense":
			if sequence {
				return fmt.Errorf("layer %d: dense after a sequence output is not supported", i)
			}
			if _, ok := activations[l.Activation]; !ok {
				return fmt.Errorf("layer %d: unknown activation '%s'", i, l.Activation)
			}
			if err := checkMatrix(l.Kernel, in, l.Units); err != nil {
				return fmt.Errorf("layer %d kernel: %w", i, err)
			}
			if len(l.Bias) != l.Units {
				return fmt.Errorf("layer %d bias: want %d values, got %d", i, l.Units, len(l.Bias))
			}
			in = l.Units
		default:
			return fmt.Errorf("layer %d: unsupported type '%s'", i, l.Type)
		}
	}
	if sequence || in != 1 {
		return fmt.Errorf("model must end in a single scalar output")
	}
	return nil
}

func checkMatrix(m [][]float64, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", rows, cols)
	}
	if len(m) != rows {
		return fmt.Errorf("want %d rows, got %d", rows, len(m))
	}
	for i, r := range m {
		if len(r) != cols {
			return fmt.Errorf("row %d: want %d columns, got %d", i, cols, len(r))
		}
	}
	return nil
}

func runLSTM(l Layer, seq [][]float64) ([][]float64, []float64) {
	u := l.Units
	h := make([]float64, u)
	c := make([]float64, u)
	z := make([]float64, 4*u)

	var out [][]float64
	if l.ReturnSequences {
		out = make([][]float64, 0, len(seq))
	}
	for _, x := range seq {
		copy(z, l.Bias)
		for i, xv := range x {
			row := l.Kernel[i]
			for k := range z {
				z[k] += xv * row[k]
			}
		}
		for i, hv := range h {
			row := l.RecurrentKernel[i]
			for k := range z {
				z[k] += hv * row[k]
			}
		}
		for k := 0; k < u; k++ {
			ig := sigmoid(z[k])
			fg := sigmoid(z[u+k])
			g := math.Tanh(z[2*u+k])
			og := sigmoid(z[3*u+k])
			c[k] = fg*c[k] + ig*g
			h[k] = og * math.Tanh(c[k])
		}
		if l.ReturnSequences {
			step := make([]float64, u)
			copy(step, h)
			out = append(out, step)
		}
	}
	return out, h
}

func runDense(l Layer, x []float64) []float64 {
	act := activations[l.Activation]
	out := make([]float64, l.Units)
	for j := range out {
		sum := l.Bias[j]
		for i, xv := range x {
			sum += xv * l.Kernel[i][j]
		}
		out[j] = act(sum)
	}
	return out
}

var activations = map[string]func(float64) float64{
	"":        func(v float64) float64 { return v },
	"linear":  func(v float64) float64 { return v },
	"relu":    func(v float64) float64 { return math.Max(0, v) },
	"sigmoid": sigmoid,
	"tanh":    math.Tanh,
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

var _ domsvc.Predictor = (*ArtifactPredictor)(nil)
