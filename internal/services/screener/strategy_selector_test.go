package screener

import (
	"strings"
	"testing"

	"NewsScreener/internal/domain/models"
)

func signalOf(dir models.Direction, score float64) models.Signal {
	return models.Signal{
		Symbol:        "NSE:TESTCO-EQ",
		Direction:     dir,
		StrengthTier:  tierFor(score),
		StrengthScore: score,
	}
}

func TestSelectBullishDelivery(t *testing.T) {
	s := NewStrategySelector()

	rec := s.Select(
		signalOf(models.DirectionBullish, 90),
		anomaly(3.0, 5.0, true, true),
		sentiment(models.DirectionBullish, 0.9),
		testThresholds(),
	)

	if rec.Action != models.ActionBuyDelivery {
		t.Fatalf("action = %s, want BUY_DELIVERY", rec.Action)
	}
	if !strings.HasPrefix(rec.Entry, "Strong buy") {
		t.Fatalf("entry = %q, want strong-buy guidance above 75", rec.Entry)
	}
	if rec.RiskLevel != "LOW" {
		t.Fatalf("risk = %s, want LOW above 80", rec.RiskLevel)
	}
	if rec.HoldWindowDays < 5 || rec.HoldWindowDays > 30 {
		t.Fatalf("hold window %d outside configured bounds", rec.HoldWindowDays)
	}
}

func TestSelectHoldWindowInterpolation(t *testing.T) {
	th := testThresholds() // hold bounds 5..30

	tests := []struct {
		score float64
		want  int
	}{
		{100, 5},
		{0, 30},
		{60, 15},
		{50, 18}, // 30 - 25*0.5 = 17.5, rounds to 18
	}
	for _, tt := range tests {
		if got := holdWindow(tt.score, th); got != tt.want {
			t.Fatalf("holdWindow(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestSelectBearishIntraday(t *testing.T) {
	s := NewStrategySelector()

	rec := s.Select(
		signalOf(models.DirectionBearish, 65),
		anomaly(2.4, -4.5, true, true),
		sentiment(models.DirectionBearish, 0.6),
		testThresholds(),
	)

	if rec.Action != models.ActionSellIntraday {
		t.Fatalf("action = %s, want SELL_INTRADAY", rec.Action)
	}
	if rec.HoldWindowDays != 0 {
		t.Fatalf("intraday recommendation must not carry a hold window, got %d", rec.HoldWindowDays)
	}
	if len(rec.Rationale) == 0 || !strings.Contains(rec.Rationale[0], "same-day exit") {
		t.Fatalf("bearish rationale must lead with the same-day exit note, got %v", rec.Rationale)
	}
	if !strings.HasPrefix(rec.Entry, "Sell on bounce") {
		t.Fatalf("entry = %q, want sell-on-bounce guidance at or below 75", rec.Entry)
	}
	if rec.RiskLevel != "MEDIUM" {
		t.Fatalf("risk = %s, want MEDIUM at 65", rec.RiskLevel)
	}
}

func TestSelectNeutralNoAction(t *testing.T) {
	s := NewStrategySelector()

	rec := s.Select(
		signalOf(models.DirectionNeutral, 20),
		anomaly(1.2, 0.8, false, false),
		sentiment(models.DirectionNeutral, 0),
		testThresholds(),
	)

	if rec.Action != models.ActionNone {
		t.Fatalf("action = %s, want NO_ACTION", rec.Action)
	}
	if rec.Entry != "" || rec.Target != "" || rec.StopLoss != "" {
		t.Fatalf("neutral recommendation must not carry trade levels: %+v", rec)
	}
	if len(rec.Rationale) == 0 {
		t.Fatal("neutral recommendation still explains its evidence")
	}
}

func TestSelectRationaleOrderAndDeterminism(t *testing.T) {
	s := NewStrategySelector()

	sent := models.SentimentResult{
		Label:           models.DirectionBullish,
		Confidence:      0.8,
		MatchedKeywords: []string{"contract", "profit"},
		Categories:      []string{"contract", "financial"},
		NewsCount:       4,
	}

	a := s.Select(signalOf(models.DirectionBullish, 80), anomaly(3.0, 5.0, true, true), sent, testThresholds())
	b := s.Select(signalOf(models.DirectionBullish, 80), anomaly(3.0, 5.0, true, true), sent, testThresholds())

	if len(a.Rationale) != 3 {
		t.Fatalf("expected news/volume/price rationale, got %v", a.Rationale)
	}
	if !strings.HasPrefix(a.Rationale[0], "news:") ||
		!strings.HasPrefix(a.Rationale[1], "volume:") ||
		!strings.HasPrefix(a.Rationale[2], "price:") {
		t.Fatalf("rationale out of order: %v", a.Rationale)
	}
	for i := range a.Rationale {
		if a.Rationale[i] != b.Rationale[i] {
			t.Fatalf("rationale not deterministic: %q vs %q", a.Rationale[i], b.Rationale[i])
		}
	}
}

func TestSelectCarriesEvidence(t *testing.T) {
	s := NewStrategySelector()

	rec := s.Select(
		signalOf(models.DirectionBullish, 80),
		anomaly(3.5, 6.0, true, true),
		models.SentimentResult{Label: models.DirectionBullish, Confidence: 1, NewsCount: 2},
		testThresholds(),
	)

	if rec.VolumeSurgeRatio != 3.5 || rec.PriceChangePercent != 6.0 || rec.NewsCount != 2 {
		t.Fatalf("evidence not carried: %+v", rec)
	}
}
