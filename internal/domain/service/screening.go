package service

import (
	"NewsScreener/internal/domain/models"
)

// AnomalyDetector classifies a snapshot against the screening thresholds.
type AnomalyDetector interface {
	Classify(snap *models.MarketSnapshot, th models.Thresholds) (models.AnomalyClassification, error)
}

// SentimentClassifier scores a deduplicated news batch for a symbol.
type SentimentClassifier interface {
	Classify(items []models.NewsItem, symbol string) models.SentimentResult
}

// SignalResolver combines anomaly and sentiment evidence into one signal.
type SignalResolver interface {
	Resolve(anom models.AnomalyClassification, sent models.SentimentResult, th models.Thresholds) models.Signal
}

// StrategySelector maps a resolved signal to an actionable recommendation.
type StrategySelector interface {
	Select(sig models.Signal, anom models.AnomalyClassification, sent models.SentimentResult, th models.Thresholds) *models.Recommendation
}
