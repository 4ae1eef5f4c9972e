package booking

import (
	"fmt"
	"math"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the price breakdown in cents for the given parameters.
	Calculate(params PricingParams) (Quote, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Days             int
	DistanceKm       float64
	PricePerDayCents int64
	PricePerKmCents  int64
}

// Quote is a computed price breakdown.
type Quote struct {
	BasePricePerDayCents int64
	DistancePriceCents   int64
	TotalPriceCents      int64
}

// RentalPricingStrategy prices a rental by day count plus distance.
type RentalPricingStrategy struct{}

// NewRentalPricingStrategy creates a new RentalPricingStrategy.
func NewRentalPricingStrategy() *RentalPricingStrategy {
	return &RentalPricingStrategy{}
}

// Calculate computes days × per-day rate + distance × per-km rate.
// The distance charge is rounded to the nearest cent.
func (s *RentalPricingStrategy) Calculate(params PricingParams) (Quote, error) {
	if params.Days < 1 {
		return Quote{}, fmt.Errorf("rental must span at least one day")
	}
	if params.DistanceKm < 0 {
		return Quote{}, fmt.Errorf("distance cannot be negative")
	}
	if params.PricePerDayCents < 0 || params.PricePerKmCents < 0 {
		return Quote{}, fmt.Errorf("rates cannot be negative")
	}

	distanceCents := int64(math.Round(params.DistanceKm * float64(params.PricePerKmCents)))
	return Quote{
		BasePricePerDayCents: params.PricePerDayCents,
		DistancePriceCents:   distanceCents,
		TotalPriceCents:      int64(params.Days)*params.PricePerDayCents + distanceCents,
	}, nil
}
