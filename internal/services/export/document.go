package export

import (
	"time"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	"github.com/Pulkit320/market-scope/pkg/util"
)

// RecordDTO is the wire form of one asset as the dashboard reads it.
type RecordDTO struct {
	ID         string            `json:"id"`
	Symbol     string            `json:"symbol"`
	Name       string            `json:"name"`
	Price      float64           `json:"price"`
	Change24h  float64           `json:"change24h"`
	Prediction PredictionDTO     `json:"prediction"`
	History    []HistoryPointDTO `json:"history"`
}

type PredictionDTO struct {
	Direction  string `json:"direction"`
	Confidence int    `json:"confidence"`
	Label      string `json:"label"`
	Mock       bool   `json:"mock,omitempty"`
}

type HistoryPointDTO struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// EncodeOptions tunes the wire form.
type EncodeOptions struct {
	MarkMock bool
}

// ToDTO converts a record. The mock flag is only emitted when requested.
func ToDTO(r models.AssetRecord, opts EncodeOptions) RecordDTO {
	history := make([]HistoryPointDTO, len(r.History))
	for i, h := range r.History {
		history[i] = HistoryPointDTO{Date: util.FormatDate(h.Date), Value: h.Value}
	}
	return RecordDTO{
		ID:        r.ID,
		Symbol:    r.Symbol,
		Name:      r.Name,
		Price:     r.Price,
		Change24h: r.Change24h,
		Prediction: PredictionDTO{
			Direction:  string(r.Prediction.Direction),
			Confidence: r.Prediction.Confidence,
			Label:      string(r.Prediction.Label),
			Mock:       opts.MarkMock && r.Prediction.Mock(),
		},
		History: history,
	}
}

// DocumentDTO converts a whole document, preserving order.
func DocumentDTO(doc models.ExportDocument, opts EncodeOptions) []RecordDTO {
	out := make([]RecordDTO, len(doc))
	for i, r := range doc {
		out[i] = ToDTO(r, opts)
	}
	return out
}

// Envelope is the message published to streaming sinks.
type Envelope struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	RecordDTO
}
