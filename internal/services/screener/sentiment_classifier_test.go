package screener

import (
	"testing"

	"NewsScreener/internal/domain/models"
)

func news(titles ...string) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(titles))
	for _, title := range titles {
		out = append(out, models.NewsItem{Title: title})
	}
	return out
}

func TestSentimentEmptyBatchIsNeutral(t *testing.T) {
	c := NewSentimentClassifier()

	got := c.Classify(nil, "NSE:TESTCO-EQ")
	if got.Label != models.DirectionNeutral {
		t.Fatalf("label = %s, want NEUTRAL", got.Label)
	}
	if got.Confidence != 0 || got.NewsCount != 0 {
		t.Fatalf("empty batch must have zero confidence and count, got %+v", got)
	}
}

func TestSentimentBullishBatch(t *testing.T) {
	c := NewSentimentClassifier()

	got := c.Classify(news(
		"TestCo wins major defence contract",
		"Record profit reported for Q2",
	), "NSE:TESTCO-EQ")

	if got.Label != models.DirectionBullish {
		t.Fatalf("label = %s, want BULLISH", got.Label)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", got.Confidence)
	}
	if got.NewsCount != 2 {
		t.Fatalf("news count = %d, want 2", got.NewsCount)
	}
	if len(got.MatchedKeywords) == 0 {
		t.Fatal("expected matched keywords")
	}
}

func TestSentimentPriorityOverridesGenericTerms(t *testing.T) {
	c := NewSentimentClassifier()

	// "profit" alone votes bullish, but the high-priority "loss warning"
	// fixes the item's polarity to bearish.
	got := c.Classify(news("Quarterly profit falls as company issues loss warning"), "NSE:TESTCO-EQ")

	if got.Label != models.DirectionBearish {
		t.Fatalf("label = %s, want BEARISH", got.Label)
	}
	found := false
	for _, kw := range got.MatchedKeywords {
		if kw == "loss warning" {
			found = true
		}
		if kw == "profit" {
			t.Fatal("bullish term must not be credited to a bearish item")
		}
	}
	if !found {
		t.Fatalf("expected 'loss warning' in matched keywords, got %v", got.MatchedKeywords)
	}
}

func TestSentimentTieIsNeutral(t *testing.T) {
	c := NewSentimentClassifier()

	// Both items carry three weight-1 terms of opposite polarity.
	got := c.Classify(news(
		"Strong growth in dividend",
		"Shares drop on debt concern",
	), "NSE:TESTCO-EQ")

	if got.Label != models.DirectionNeutral {
		t.Fatalf("label = %s, want NEUTRAL on tie", got.Label)
	}
	if got.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0 on tie", got.Confidence)
	}
}

func TestSentimentSingleSidedConfidenceIsOne(t *testing.T) {
	c := NewSentimentClassifier()

	got := c.Classify(news("Company awarded large export order, revenue growth ahead"), "NSE:TESTCO-EQ")
	if got.Label != models.DirectionBullish {
		t.Fatalf("label = %s, want BULLISH", got.Label)
	}
	if got.Confidence != 1 {
		t.Fatalf("one-sided batch confidence = %v, want 1", got.Confidence)
	}
}

func TestSentimentCategoriesCollected(t *testing.T) {
	c := NewSentimentClassifier()

	got := c.Classify(news("TestCo announces acquisition and share buyback"), "NSE:TESTCO-EQ")
	want := map[string]bool{"acquisition": false, "financial": false}
	for _, cat := range got.Categories {
		if _, ok := want[cat]; ok {
			want[cat] = true
		}
	}
	for cat, seen := range want {
		if !seen {
			t.Fatalf("missing category %q in %v", cat, got.Categories)
		}
	}
}

func TestSentimentKeywordsDeduplicated(t *testing.T) {
	c := NewSentimentClassifier()

	got := c.Classify(news(
		"Profit rises on new contract",
		"Another contract lifts profit outlook",
	), "NSE:TESTCO-EQ")

	seen := make(map[string]int)
	for _, kw := range got.MatchedKeywords {
		seen[kw]++
		if seen[kw] > 1 {
			t.Fatalf("keyword %q reported twice", kw)
		}
	}
}
