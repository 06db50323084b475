package models

// Direction of the predicted move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Label is the human-facing name of a Direction.
type Label string

const (
	LabelBullish Label = "Bullish"
	LabelBearish Label = "Bearish"
)

// PredictionSource tells which predictor produced a probability.
type PredictionSource string

const (
	SourceModel  PredictionSource = "model"
	SourceRemote PredictionSource = "remote"
	SourceMock   PredictionSource = "mock"
)

// FeatureWindow is a (rows x len(Columns)) matrix scaled into [0,1] per column.
type FeatureWindow struct {
	Columns []Column
	Values  [][]float64
}

// Shape returns the model input shape (1, rows, features).
func (w FeatureWindow) Shape() [3]int {
	return [3]int{1, len(w.Values), len(w.Columns)}
}

// Tensor wraps the window into a single-sample batch.
func (w FeatureWindow) Tensor() [][][]float64 {
	return [][][]float64{w.Values}
}

// Prediction is the interpreted output of a predictor for one asset.
type Prediction struct {
	Probability float64
	Direction   Direction
	Confidence  int // 50..100 after the presentation floor
	Label       Label
	Source      PredictionSource
}

// Mock reports whether the prediction carries no predictive meaning.
func (p Prediction) Mock() bool { return p.Source == SourceMock }
