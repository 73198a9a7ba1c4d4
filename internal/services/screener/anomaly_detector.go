package screener

import (
	"math"

	"NewsScreener/internal/domain/models"
	"NewsScreener/internal/domain/service"
)

type anomalyDetector struct{}

// NewAnomalyDetector returns the stateless volume/price anomaly detector.
func NewAnomalyDetector() service.AnomalyDetector {
	return &anomalyDetector{}
}

// Classify derives the anomaly view of one snapshot. A zero average volume
// never counts as a surge; the significance band is inclusive on both ends.
func (d *anomalyDetector) Classify(snap *models.MarketSnapshot, th models.Thresholds) (models.AnomalyClassification, error) {
	if snap == nil || snap.LastPrice <= 0 {
		return models.AnomalyClassification{}, models.ErrInvalidSnapshot
	}

	var ratio float64
	if snap.AverageVolume > 0 {
		ratio = snap.CurrentVolume / snap.AverageVolume
	}

	magnitude := math.Abs(snap.DayChangePercent)

	return models.AnomalyClassification{
		VolumeSurgeRatio:       ratio,
		PriceChangePercent:     snap.DayChangePercent,
		IsVolumeSurge:          snap.AverageVolume > 0 && ratio >= th.VolumeSurgeThreshold,
		IsPriceMoveSignificant: magnitude >= th.PriceChangeMin && magnitude <= th.PriceChangeMax,
	}, nil
}
