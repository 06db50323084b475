package models

// Requests for the asset HTTP endpoints. Defined in domain for consistency and reuse.

type AssetRequest struct {
	ID string `param:"id" json:"id" validate:"required,max=64"`
}

type HistoryRequest struct {
	ID   string `param:"id" json:"id" validate:"required,max=64"`
	Days int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
}
