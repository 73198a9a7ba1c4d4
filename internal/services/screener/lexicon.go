package screener

import "NewsScreener/internal/domain/models"

// lexiconEntry tags one keyword with its polarity, vote weight and news
// category. Entries are matched in slice order: high-priority terms (explicit
// loss/warning phrasing, hard corporate events) come first so they fix an
// item's polarity before generic terms are considered.
type lexiconEntry struct {
	Term     string
	Polarity models.Direction
	Weight   float64
	Category string
}

// defaultLexicon returns the static keyword table, ordered by priority.
// Loaded once at classifier construction; classification is a pure fold over
// this data.
func defaultLexicon() []lexiconEntry {
	return []lexiconEntry{
		// High-priority bearish: explicit warnings and hard negative events.
		{Term: "loss warning", Polarity: models.DirectionBearish, Weight: 2.0, Category: "financial"},
		{Term: "profit warning", Polarity: models.DirectionBearish, Weight: 2.0, Category: "financial"},
		{Term: "default", Polarity: models.DirectionBearish, Weight: 2.0, Category: "financial"},
		{Term: "bankruptcy", Polarity: models.DirectionBearish, Weight: 2.0, Category: "financial"},
		{Term: "fraud", Polarity: models.DirectionBearish, Weight: 2.0, Category: "legal"},
		{Term: "lawsuit", Polarity: models.DirectionBearish, Weight: 2.0, Category: "legal"},
		{Term: "investigation", Polarity: models.DirectionBearish, Weight: 2.0, Category: "legal"},
		{Term: "scandal", Polarity: models.DirectionBearish, Weight: 2.0, Category: "legal"},
		{Term: "downgrade", Polarity: models.DirectionBearish, Weight: 2.0, Category: "rating"},

		// High-priority bullish: hard positive events.
		{Term: "contract win", Polarity: models.DirectionBullish, Weight: 2.0, Category: "contract"},
		{Term: "profit surge", Polarity: models.DirectionBullish, Weight: 2.0, Category: "financial"},
		{Term: "record profit", Polarity: models.DirectionBullish, Weight: 2.0, Category: "financial"},
		{Term: "acquisition", Polarity: models.DirectionBullish, Weight: 2.0, Category: "acquisition"},
		{Term: "merger", Polarity: models.DirectionBullish, Weight: 2.0, Category: "acquisition"},
		{Term: "upgrade", Polarity: models.DirectionBullish, Weight: 2.0, Category: "rating"},
		{Term: "buyback", Polarity: models.DirectionBullish, Weight: 2.0, Category: "financial"},
		{Term: "awarded", Polarity: models.DirectionBullish, Weight: 2.0, Category: "contract"},
		{Term: "breakthrough", Polarity: models.DirectionBullish, Weight: 2.0, Category: "product"},
		{Term: "approval", Polarity: models.DirectionBullish, Weight: 2.0, Category: "regulatory"},

		// Generic bullish vocabulary.
		{Term: "contract", Polarity: models.DirectionBullish, Weight: 1.0, Category: "contract"},
		{Term: "deal", Polarity: models.DirectionBullish, Weight: 1.0, Category: "contract"},
		{Term: "expansion", Polarity: models.DirectionBullish, Weight: 1.0, Category: "product"},
		{Term: "partnership", Polarity: models.DirectionBullish, Weight: 1.0, Category: "contract"},
		{Term: "collaboration", Polarity: models.DirectionBullish, Weight: 1.0, Category: "contract"},
		{Term: "dividend", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "growth", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "profit", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "revenue", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "surge", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "gain", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "beat", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "exceed", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "strong", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "robust", Polarity: models.DirectionBullish, Weight: 1.0, Category: "financial"},
		{Term: "launch", Polarity: models.DirectionBullish, Weight: 1.0, Category: "product"},
		{Term: "innovation", Polarity: models.DirectionBullish, Weight: 1.0, Category: "product"},
		{Term: "bullish", Polarity: models.DirectionBullish, Weight: 1.0, Category: "general"},

		// Generic bearish vocabulary.
		{Term: "losses", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "loss", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "decline", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "drop", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "fall", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "fell", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "weak", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "missed", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "miss", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "concern", Polarity: models.DirectionBearish, Weight: 1.0, Category: "general"},
		{Term: "risk", Polarity: models.DirectionBearish, Weight: 1.0, Category: "general"},
		{Term: "threat", Polarity: models.DirectionBearish, Weight: 1.0, Category: "general"},
		{Term: "layoff", Polarity: models.DirectionBearish, Weight: 1.0, Category: "management"},
		{Term: "closure", Polarity: models.DirectionBearish, Weight: 1.0, Category: "management"},
		{Term: "debt", Polarity: models.DirectionBearish, Weight: 1.0, Category: "financial"},
		{Term: "warning", Polarity: models.DirectionBearish, Weight: 1.0, Category: "general"},
		{Term: "bearish", Polarity: models.DirectionBearish, Weight: 1.0, Category: "general"},
	}
}
