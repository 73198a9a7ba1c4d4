package screener

import (
	"strings"

	"NewsScreener/internal/domain/models"
	"NewsScreener/internal/domain/service"
)

type sentimentClassifier struct {
	lexicon []lexiconEntry
}

// NewSentimentClassifier builds a classifier over the default keyword lexicon.
func NewSentimentClassifier() service.SentimentClassifier {
	return &sentimentClassifier{lexicon: defaultLexicon()}
}

// Classify folds the news batch into one sentiment result. Each item votes
// with the polarity of its highest-priority matching term; the item's vote
// weight is the sum of its matching terms of that polarity. The batch label
// is the polarity with strictly greater total weight, NEUTRAL on a tie or
// when nothing matches.
func (c *sentimentClassifier) Classify(items []models.NewsItem, symbol string) models.SentimentResult {
	res := models.SentimentResult{
		Label:     models.DirectionNeutral,
		NewsCount: len(items),
	}
	if len(items) == 0 {
		return res
	}

	var bullWeight, bearWeight float64
	seenKeyword := make(map[string]bool)
	seenCategory := make(map[string]bool)

	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Description)

		polarity, matched := c.matchItem(text)
		if polarity == models.DirectionNeutral {
			continue
		}

		var weight float64
		for _, e := range matched {
			weight += e.Weight
			if !seenKeyword[e.Term] {
				seenKeyword[e.Term] = true
				res.MatchedKeywords = append(res.MatchedKeywords, e.Term)
			}
			if !seenCategory[e.Category] {
				seenCategory[e.Category] = true
				res.Categories = append(res.Categories, e.Category)
			}
		}

		if polarity == models.DirectionBullish {
			bullWeight += weight
		} else {
			bearWeight += weight
		}
	}

	total := bullWeight + bearWeight
	switch {
	case bullWeight > bearWeight:
		res.Label = models.DirectionBullish
	case bearWeight > bullWeight:
		res.Label = models.DirectionBearish
	}
	if total > 0 {
		conf := (bullWeight - bearWeight) / total
		if conf < 0 {
			conf = -conf
		}
		res.Confidence = conf
	}
	return res
}

// matchItem fixes the item's polarity from the first lexicon entry found in
// the text, then collects every matching entry of that polarity.
func (c *sentimentClassifier) matchItem(text string) (models.Direction, []lexiconEntry) {
	polarity := models.DirectionNeutral
	for _, e := range c.lexicon {
		if strings.Contains(text, e.Term) {
			polarity = e.Polarity
			break
		}
	}
	if polarity == models.DirectionNeutral {
		return polarity, nil
	}

	var matched []lexiconEntry
	for _, e := range c.lexicon {
		if e.Polarity == polarity && strings.Contains(text, e.Term) {
			matched = append(matched, e)
		}
	}
	return polarity, matched
}
