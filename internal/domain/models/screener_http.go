package models

// Requests for screener HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	Force  bool   `query:"force" json:"force"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type SettingsRequest struct {
	VolumeSurgeThreshold float64 `json:"volume_surge_threshold" validate:"required,gt=0"`
	PriceChangeMin       float64 `json:"price_change_min" validate:"gte=0"`
	PriceChangeMax       float64 `json:"price_change_max" validate:"required,gtefield=PriceChangeMin"`
	MinPrice             float64 `json:"min_price" validate:"gte=0"`
	MaxPrice             float64 `json:"max_price" validate:"required,gtefield=MinPrice"`
	MinHoldDays          int     `json:"min_hold_days" default:"5" validate:"gte=1"`
	MaxHoldDays          int     `json:"max_hold_days" default:"30" validate:"gtefield=MinHoldDays"`
}
