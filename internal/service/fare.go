package service

import (
	"math"

	"ridebook/internal/config"
)

// FareEstimator converts a route distance into a fare. The same estimator is
// used at ride creation (estimate route) and completion (actual route); the
// two results may differ because real routes deviate from estimates.
type FareEstimator struct {
	baseFare  float64
	perKmRate float64
}

// NewFareEstimator creates a FareEstimator from fare configuration.
func NewFareEstimator(cfg config.FareConfig) *FareEstimator {
	return &FareEstimator{
		baseFare:  cfg.BaseFare,
		perKmRate: cfg.PerKmRate,
	}
}

// Fare returns round(base + distanceKm * rate) in major currency units.
// Deterministic, total, and monotonically non-decreasing in distance.
func (f *FareEstimator) Fare(distanceKm float64) int64 {
	return int64(math.Round(f.baseFare + distanceKm*f.perKmRate))
}
