package screener

import (
	"math"
	"testing"

	"NewsScreener/internal/domain/models"
)

func anomaly(ratio, pct float64, surge, significant bool) models.AnomalyClassification {
	return models.AnomalyClassification{
		VolumeSurgeRatio:       ratio,
		PriceChangePercent:     pct,
		IsVolumeSurge:          surge,
		IsPriceMoveSignificant: significant,
	}
}

func sentiment(label models.Direction, confidence float64) models.SentimentResult {
	return models.SentimentResult{Label: label, Confidence: confidence, NewsCount: 3}
}

func TestResolveDirectionTable(t *testing.T) {
	tests := []struct {
		name string
		anom models.AnomalyClassification
		sent models.SentimentResult
		want models.Direction
	}{
		{
			"bullish sentiment confirmed by surge",
			anomaly(3.0, 1.0, true, false),
			sentiment(models.DirectionBullish, 0.8),
			models.DirectionBullish,
		},
		{
			"bullish sentiment confirmed by positive move",
			anomaly(1.0, 5.0, false, true),
			sentiment(models.DirectionBullish, 0.8),
			models.DirectionBullish,
		},
		{
			"bearish sentiment confirmed by surge",
			anomaly(2.5, -1.0, true, false),
			sentiment(models.DirectionBearish, 0.7),
			models.DirectionBearish,
		},
		{
			"bearish sentiment confirmed by negative move",
			anomaly(1.0, -6.0, false, true),
			sentiment(models.DirectionBearish, 0.7),
			models.DirectionBearish,
		},
		{
			"positive move alone with neutral sentiment",
			anomaly(1.0, 4.0, false, true),
			sentiment(models.DirectionNeutral, 0),
			models.DirectionBullish,
		},
		{
			"negative move alone with neutral sentiment",
			anomaly(1.0, -4.0, false, true),
			sentiment(models.DirectionNeutral, 0),
			models.DirectionBearish,
		},
		{
			"negative move contradicted by bullish sentiment",
			anomaly(1.0, -4.0, false, true),
			sentiment(models.DirectionBullish, 0.9),
			models.DirectionNeutral,
		},
		{
			"positive move contradicted by bearish sentiment",
			anomaly(1.0, 4.0, false, true),
			sentiment(models.DirectionBearish, 0.9),
			models.DirectionNeutral,
		},
		{
			"no anomaly at all",
			anomaly(1.1, 0.5, false, false),
			sentiment(models.DirectionBullish, 1.0),
			models.DirectionNeutral,
		},
	}

	r := NewSignalResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.anom, tt.sent, testThresholds())
			if got.Direction != tt.want {
				t.Fatalf("direction = %s, want %s", got.Direction, tt.want)
			}
		})
	}
}

func TestResolveNeutralScoreCapped(t *testing.T) {
	r := NewSignalResolver()

	// Near-threshold volume plus a sub-band move would score well above the
	// neutral ceiling without the cap.
	got := r.Resolve(
		anomaly(1.9, 2.9, false, false),
		sentiment(models.DirectionNeutral, 0),
		testThresholds(),
	)
	if got.Direction != models.DirectionNeutral {
		t.Fatalf("direction = %s, want NEUTRAL", got.Direction)
	}
	if got.StrengthScore > neutralScoreCeiling {
		t.Fatalf("neutral score %v exceeds ceiling %v", got.StrengthScore, neutralScoreCeiling)
	}
	if got.StrengthTier != models.TierWeak {
		t.Fatalf("tier = %s, want WEAK", got.StrengthTier)
	}
}

func TestResolveMaxScore(t *testing.T) {
	r := NewSignalResolver()

	got := r.Resolve(
		anomaly(4.0, 15.0, true, true),
		sentiment(models.DirectionBullish, 1.0),
		testThresholds(),
	)
	if got.StrengthScore != 100 {
		t.Fatalf("score = %v, want 100", got.StrengthScore)
	}
	if got.StrengthTier != models.TierStrong {
		t.Fatalf("tier = %s, want STRONG", got.StrengthTier)
	}
	if got.GeneratedAt.IsZero() {
		t.Fatal("GeneratedAt must be set")
	}
}

func TestResolveScoreComponents(t *testing.T) {
	r := NewSignalResolver()

	// ratio 2.0 against threshold 2.0 saturates the volume part (40),
	// confidence 0.5 gives 15, a 7.5% move against max 15% gives 15.
	got := r.Resolve(
		anomaly(2.0, 7.5, true, true),
		sentiment(models.DirectionBullish, 0.5),
		testThresholds(),
	)
	if math.Abs(got.StrengthScore-70) > 1e-9 {
		t.Fatalf("score = %v, want 70", got.StrengthScore)
	}
	if got.StrengthTier != models.TierStrong {
		t.Fatalf("tier = %s, want STRONG at score 70", got.StrengthTier)
	}
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.StrengthTier
	}{
		{0, models.TierWeak},
		{39.99, models.TierWeak},
		{40, models.TierModerate},
		{69.99, models.TierModerate},
		{70, models.TierStrong},
		{100, models.TierStrong},
	}
	for _, tt := range tests {
		if got := tierFor(tt.score); got != tt.want {
			t.Fatalf("tierFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
