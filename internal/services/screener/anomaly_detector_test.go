package screener

import (
	"errors"
	"testing"
	"time"

	"NewsScreener/internal/domain/models"
)

func testThresholds() models.Thresholds {
	return models.Thresholds{
		VolumeSurgeThreshold: 2.0,
		PriceChangeMin:       3.0,
		PriceChangeMax:       15.0,
		MinPrice:             20,
		MaxPrice:             5000,
		MinHoldDays:          5,
		MaxHoldDays:          30,
	}
}

func snapshot(price, pct, curVol, avgVol float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:           "NSE:TESTCO-EQ",
		LastPrice:        price,
		PrevClose:        price / (1 + pct/100),
		DayChangePercent: pct,
		CurrentVolume:    curVol,
		AverageVolume:    avgVol,
		Timestamp:        time.Now(),
	}
}

func TestAnomalyDetectorInvalidSnapshot(t *testing.T) {
	d := NewAnomalyDetector()

	for _, snap := range []*models.MarketSnapshot{nil, snapshot(0, 1, 100, 100)} {
		_, err := d.Classify(snap, testThresholds())
		if !errors.Is(err, models.ErrInvalidSnapshot) {
			t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
		}
	}
}

func TestAnomalyDetectorZeroAverageVolume(t *testing.T) {
	d := NewAnomalyDetector()

	got, err := d.Classify(snapshot(100, 1.0, 500000, 0), testThresholds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsVolumeSurge {
		t.Fatal("zero average volume must never count as a surge")
	}
	if got.VolumeSurgeRatio != 0 {
		t.Fatalf("expected ratio 0, got %v", got.VolumeSurgeRatio)
	}
}

func TestAnomalyDetectorVolumeSurge(t *testing.T) {
	d := NewAnomalyDetector()

	tests := []struct {
		name    string
		cur     float64
		avg     float64
		surge   bool
		ratio   float64
	}{
		{"exactly at threshold", 200, 100, true, 2.0},
		{"just below threshold", 199, 100, false, 1.99},
		{"well above threshold", 700, 200, true, 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Classify(snapshot(100, 1.0, tt.cur, tt.avg), testThresholds())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsVolumeSurge != tt.surge {
				t.Fatalf("surge = %v, want %v", got.IsVolumeSurge, tt.surge)
			}
			if got.VolumeSurgeRatio != tt.ratio {
				t.Fatalf("ratio = %v, want %v", got.VolumeSurgeRatio, tt.ratio)
			}
		})
	}
}

func TestAnomalyDetectorPriceSignificance(t *testing.T) {
	d := NewAnomalyDetector()

	tests := []struct {
		name        string
		pct         float64
		significant bool
	}{
		{"below band", 2.9, false},
		{"lower edge inclusive", 3.0, true},
		{"inside band", 7.5, true},
		{"upper edge inclusive", 15.0, true},
		{"above band", 15.1, false},
		{"negative inside band", -4.0, true},
		{"negative upper edge", -15.0, true},
		{"negative above band", -20.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Classify(snapshot(100, tt.pct, 100, 100), testThresholds())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsPriceMoveSignificant != tt.significant {
				t.Fatalf("significant = %v, want %v", got.IsPriceMoveSignificant, tt.significant)
			}
			if got.PriceChangePercent != tt.pct {
				t.Fatalf("pct = %v, want %v", got.PriceChangePercent, tt.pct)
			}
		})
	}
}
