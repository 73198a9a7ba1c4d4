package models

import "time"

// MarketSnapshot captures the current market view of one symbol for a scan.
// Built fresh per scan from the quote and daily history endpoints; never
// mutated after creation.
type MarketSnapshot struct {
	Symbol           string
	LastPrice        float64
	PrevClose        float64
	DayChangePercent float64
	CurrentVolume    float64
	AverageVolume    float64 // mean daily volume over the lookback window, excluding today
	Timestamp        time.Time
}

// NewsItem is one article returned by the news provider. Immutable once fetched.
type NewsItem struct {
	Title       string
	Description string
	URL         string
	Source      string
	PublishedAt time.Time
}

// NewsQuery describes one news lookup. BypassQuota lets a forced on-demand
// analysis spend outside the daily request budget.
type NewsQuery struct {
	Symbol       string
	LookbackDays int
	MaxItems     int
	BypassQuota  bool
}

// Thresholds is the tunable screening configuration applied per scan.
// Values are defaults from config and can be updated at runtime through the
// settings endpoint.
type Thresholds struct {
	VolumeSurgeThreshold float64 `json:"volume_surge_threshold"`
	PriceChangeMin       float64 `json:"price_change_min"`
	PriceChangeMax       float64 `json:"price_change_max"`
	MinPrice             float64 `json:"min_price"`
	MaxPrice             float64 `json:"max_price"`
	MinHoldDays          int     `json:"min_hold_days"`
	MaxHoldDays          int     `json:"max_hold_days"`
}
