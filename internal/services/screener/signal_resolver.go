package screener

import (
	"math"
	"time"

	"NewsScreener/internal/domain/models"
	"NewsScreener/internal/domain/service"
)

// neutralScoreCeiling caps the score of a NEUTRAL signal so that neutral
// outcomes never rank above actionable ones.
const neutralScoreCeiling = 35.0

type signalResolver struct {
	now func() time.Time
}

// NewSignalResolver returns the resolver combining anomaly and sentiment
// evidence into a directional signal.
func NewSignalResolver() service.SignalResolver {
	return &signalResolver{now: time.Now}
}

func (r *signalResolver) Resolve(anom models.AnomalyClassification, sent models.SentimentResult, th models.Thresholds) models.Signal {
	direction := resolveDirection(anom, sent)
	score := strengthScore(anom, sent, th)
	if direction == models.DirectionNeutral && score > neutralScoreCeiling {
		score = neutralScoreCeiling
	}

	return models.Signal{
		Direction:     direction,
		StrengthTier:  tierFor(score),
		StrengthScore: score,
		GeneratedAt:   r.now().UTC(),
	}
}

// resolveDirection applies the decision table: sentiment confirmed by any
// anomaly wins, a significant price move alone sets direction unless the
// opposite sentiment contradicts it, everything else is neutral.
func resolveDirection(anom models.AnomalyClassification, sent models.SentimentResult) models.Direction {
	pct := anom.PriceChangePercent

	switch {
	case sent.Label == models.DirectionBullish && (anom.IsVolumeSurge || (anom.IsPriceMoveSignificant && pct > 0)):
		return models.DirectionBullish
	case sent.Label == models.DirectionBearish && (anom.IsVolumeSurge || (anom.IsPriceMoveSignificant && pct < 0)):
		return models.DirectionBearish
	case anom.IsPriceMoveSignificant && pct > 0 && sent.Label != models.DirectionBearish:
		return models.DirectionBullish
	case anom.IsPriceMoveSignificant && pct < 0 && sent.Label != models.DirectionBullish:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

// strengthScore blends three normalized components: volume surge (40%),
// sentiment confidence (30%) and price move magnitude (30%).
func strengthScore(anom models.AnomalyClassification, sent models.SentimentResult, th models.Thresholds) float64 {
	volPart := 0.0
	if th.VolumeSurgeThreshold > 0 {
		volPart = clamp01(anom.VolumeSurgeRatio / th.VolumeSurgeThreshold)
	}
	pricePart := 0.0
	if th.PriceChangeMax > 0 {
		pricePart = clamp01(math.Abs(anom.PriceChangePercent) / th.PriceChangeMax)
	}

	score := 40*volPart + 30*clamp01(sent.Confidence) + 30*pricePart
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func tierFor(score float64) models.StrengthTier {
	switch {
	case score < 40:
		return models.TierWeak
	case score < 70:
		return models.TierModerate
	default:
		return models.TierStrong
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
