package screener

import (
	"fmt"
	"math"
	"strings"

	"NewsScreener/internal/domain/models"
	"NewsScreener/internal/domain/service"
)

type strategySelector struct{}

// NewStrategySelector returns the selector mapping signals to trade
// recommendations: bullish signals become delivery buys with a scored hold
// window, bearish signals become intraday sells closed the same day.
func NewStrategySelector() service.StrategySelector {
	return &strategySelector{}
}

func (s *strategySelector) Select(sig models.Signal, anom models.AnomalyClassification, sent models.SentimentResult, th models.Thresholds) *models.Recommendation {
	rec := &models.Recommendation{
		Signal:             sig,
		Action:             models.ActionNone,
		PriceChangePercent: anom.PriceChangePercent,
		VolumeSurgeRatio:   anom.VolumeSurgeRatio,
		NewsCount:          sent.NewsCount,
	}

	switch sig.Direction {
	case models.DirectionBullish:
		rec.Action = models.ActionBuyDelivery
		rec.HoldWindowDays = holdWindow(sig.StrengthScore, th)
		if sig.StrengthScore > 75 {
			rec.Entry = "Strong buy - enter at current levels"
			rec.Target = "5-10% upside expected"
			rec.StopLoss = "3-4% below entry"
		} else {
			rec.Entry = "Buy on dips - wait for minor correction"
			rec.Target = "3-7% upside expected"
			rec.StopLoss = "2-3% below entry"
		}
		rec.RiskLevel = riskLevel(sig.StrengthScore)
		rec.Rationale = evidenceRationale(anom, sent)

	case models.DirectionBearish:
		rec.Action = models.ActionSellIntraday
		if sig.StrengthScore > 75 {
			rec.Entry = "Strong sell - short at current levels (intraday only)"
			rec.Target = "3-7% downside expected"
			rec.StopLoss = "2% above entry"
		} else {
			rec.Entry = "Sell on bounce - wait for minor rally"
			rec.Target = "2-5% downside expected"
			rec.StopLoss = "1.5% above entry"
		}
		rec.RiskLevel = riskLevel(sig.StrengthScore)
		rec.Rationale = append(
			[]string{"same-day exit: square off before market close"},
			evidenceRationale(anom, sent)...,
		)

	default:
		rec.Rationale = evidenceRationale(anom, sent)
	}

	return rec
}

// holdWindow interpolates the suggested delivery hold between the configured
// bounds: the stronger the signal, the shorter the hold.
func holdWindow(score float64, th models.Thresholds) int {
	minHold := float64(th.MinHoldDays)
	maxHold := float64(th.MaxHoldDays)
	return int(math.Round(maxHold - (maxHold-minHold)*score/100))
}

func riskLevel(score float64) string {
	switch {
	case score > 80:
		return "LOW"
	case score > 60:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

// evidenceRationale renders the evidence in fixed order: news, volume, price.
// Deterministic for a given input so repeated scans produce identical text.
func evidenceRationale(anom models.AnomalyClassification, sent models.SentimentResult) []string {
	out := make([]string, 0, 3)

	switch {
	case sent.NewsCount == 0:
		out = append(out, "news: no recent coverage")
	case len(sent.MatchedKeywords) == 0:
		out = append(out, fmt.Sprintf("news: %d items, no sentiment keywords matched", sent.NewsCount))
	default:
		line := fmt.Sprintf("news: %s sentiment across %d items (%s)",
			strings.ToLower(string(sent.Label)), sent.NewsCount, strings.Join(sent.MatchedKeywords, ", "))
		if len(sent.Categories) > 0 {
			line += " [" + strings.Join(sent.Categories, ", ") + "]"
		}
		out = append(out, line)
	}

	if anom.IsVolumeSurge {
		out = append(out, fmt.Sprintf("volume: %.1fx average", anom.VolumeSurgeRatio))
	} else {
		out = append(out, fmt.Sprintf("volume: no surge (%.1fx average)", anom.VolumeSurgeRatio))
	}

	if anom.IsPriceMoveSignificant {
		out = append(out, fmt.Sprintf("price: significant move of %+.2f%% on the day", anom.PriceChangePercent))
	} else {
		out = append(out, fmt.Sprintf("price: %+.2f%% on the day", anom.PriceChangePercent))
	}

	return out
}
