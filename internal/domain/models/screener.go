package models

import "time"

// Direction is the resolved trade direction for a symbol.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

// StrengthTier buckets the 0-100 strength score.
type StrengthTier string

const (
	TierWeak     StrengthTier = "WEAK"
	TierModerate StrengthTier = "MODERATE"
	TierStrong   StrengthTier = "STRONG"
)

// Action is the recommended trade action.
type Action string

const (
	ActionBuyDelivery  Action = "BUY_DELIVERY"
	ActionSellIntraday Action = "SELL_INTRADAY"
	ActionNone         Action = "NO_ACTION"
)

// AnomalyClassification is the volume/price anomaly view of one snapshot.
type AnomalyClassification struct {
	VolumeSurgeRatio       float64
	PriceChangePercent     float64
	IsVolumeSurge          bool
	IsPriceMoveSignificant bool
}

// SentimentResult is the aggregate news sentiment for one symbol.
type SentimentResult struct {
	Label           Direction
	Confidence      float64 // [0,1]
	MatchedKeywords []string
	Categories      []string // contract, financial, legal, ... per matched lexicon tags
	NewsCount       int
}

// Signal is one directional trading signal. One Signal exists per symbol per
// completed scan; the next scan supersedes it.
type Signal struct {
	Symbol        string       `json:"symbol"`
	Direction     Direction    `json:"direction"`
	StrengthTier  StrengthTier `json:"strength_tier"`
	StrengthScore float64      `json:"strength_score"` // [0,100]
	GeneratedAt   time.Time    `json:"generated_at"`
}

// Recommendation maps a signal to an actionable trade suggestion.
type Recommendation struct {
	Signal         Signal   `json:"signal"`
	Action         Action   `json:"action"`
	HoldWindowDays int      `json:"hold_window_days,omitempty"` // delivery only
	Entry          string   `json:"entry,omitempty"`
	Target         string   `json:"target,omitempty"`
	StopLoss       string   `json:"stop_loss,omitempty"`
	RiskLevel      string   `json:"risk_level,omitempty"`
	Rationale      []string `json:"rationale"`

	// Evidence carried for dashboards and ranking.
	LastPrice          float64 `json:"last_price"`
	PriceChangePercent float64 `json:"price_change_percent"`
	VolumeSurgeRatio   float64 `json:"volume_surge_ratio"`
	NewsCount          int     `json:"news_count"`
}
