package repository

import (
	"context"
	"time"

	"NewsScreener/internal/domain/models"
)

// MarketDataProvider supplies the current market snapshot for a symbol,
// including the historical average volume over the lookback window.
type MarketDataProvider interface {
	Snapshot(ctx context.Context, symbol string, lookbackDays int) (*models.MarketSnapshot, error)
}

// NewsProvider searches recent news for a symbol. Implementations return
// items deduplicated by normalized title+URL, newest first.
type NewsProvider interface {
	Search(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, error)
}

// SignalPublisher fans out actionable recommendations to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, rec *models.Recommendation) error
	PublishBatch(ctx context.Context, recs []*models.Recommendation) error
	Close() error
}

// StoredSignal is one persisted scan signal row.
type StoredSignal struct {
	ScanID        string    `json:"scan_id"`
	Symbol        string    `json:"symbol"`
	GeneratedAt   time.Time `json:"generated_at"`
	Direction     string    `json:"direction"`
	StrengthTier  string    `json:"strength_tier"`
	StrengthScore float64   `json:"strength_score"`
	Action        string    `json:"action"`
	HoldDays      int       `json:"hold_days"`
	LastPrice     float64   `json:"last_price"`
	VolumeRatio   float64   `json:"volume_ratio"`
	PriceChange   float64   `json:"price_change"`
	NewsCount     int       `json:"news_count"`
}

// ScanStore persists scan outcomes for history queries.
type ScanStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreScan(ctx context.Context, res *models.ScanResult) error
	QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*StoredSignal, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational counters and gauges for the screener.
type Metrics interface {
	RecordSymbolScanned(result string)
	RecordSignal(direction string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetQuotaRemaining(n float64)
}
