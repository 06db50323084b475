package models

import "time"

// HistoryPoint is one charted close.
type HistoryPoint struct {
	Date  time.Time
	Value float64
}

// AssetRecord is the exported unit for one asset.
// Note: no transport (json/http) concerns here.
type AssetRecord struct {
	ID         string
	Symbol     string
	Name       string
	Price      float64
	Change24h  float64 // percent
	Prediction Prediction
	History    []HistoryPoint
}

// ExportDocument holds one record per processed asset, in configured order.
type ExportDocument []AssetRecord

// Find returns the record with the given id.
func (d ExportDocument) Find(id string) (AssetRecord, bool) {
	for _, r := range d {
		if r.ID == id {
			return r, true
		}
	}
	return AssetRecord{}, false
}

// SkipReason classifies why an asset produced no record.
type SkipReason string

const (
	SkipFetchFailed      SkipReason = "fetch_failed"
	SkipInsufficientData SkipReason = "insufficient_data"
	SkipMissingColumn    SkipReason = "missing_column"
	SkipPredictFailed    SkipReason = "predict_failed"
	SkipNoChangeBasis    SkipReason = "no_change_basis"
)

// SkippedAsset records an asset left out of the document.
type SkippedAsset struct {
	Asset  AssetSpec
	Reason SkipReason
	Err    error
}

// AssetOutcome is the per-asset result: exactly one of Record or Skip is set.
type AssetOutcome struct {
	Record *AssetRecord
	Skip   *SkippedAsset
}

// Recorded builds a successful outcome.
func Recorded(r AssetRecord) AssetOutcome { return AssetOutcome{Record: &r} }

// Skipped builds a skip outcome.
func Skipped(a AssetSpec, reason SkipReason, err error) AssetOutcome {
	return AssetOutcome{Skip: &SkippedAsset{Asset: a, Reason: reason, Err: err}}
}

// ExportRun is one execution of the pipeline.
type ExportRun struct {
	ID          string
	GeneratedAt time.Time
	Document    ExportDocument
	Skipped     []SkippedAsset
	Degraded    bool // predictions came from the mock predictor
}
