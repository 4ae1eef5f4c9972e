package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRentalPricingStrategy_Calculate(t *testing.T) {
	s := NewRentalPricingStrategy()

	q, err := s.Calculate(PricingParams{Days: 3, DistanceKm: 12.5, PricePerDayCents: 4000, PricePerKmCents: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), q.BasePricePerDayCents)
	assert.Equal(t, int64(375), q.DistancePriceCents)
	assert.Equal(t, int64(12375), q.TotalPriceCents)
}

func TestRentalPricingStrategy_Rejects(t *testing.T) {
	s := NewRentalPricingStrategy()

	_, err := s.Calculate(PricingParams{Days: 0, PricePerDayCents: 100})
	assert.Error(t, err)
	_, err = s.Calculate(PricingParams{Days: 1, DistanceKm: -2})
	assert.Error(t, err)
	_, err = s.Calculate(PricingParams{Days: 1, PricePerKmCents: -1})
	assert.Error(t, err)
}

func TestGenerateBookingNumber(t *testing.T) {
	now := time.UnixMilli(1717200000000)
	n, err := GenerateBookingNumber(now)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(n, "BK1717200000000"))
	suffix := strings.TrimPrefix(n, "BK1717200000000")
	require.Len(t, suffix, 4)
	assert.GreaterOrEqual(t, suffix, "1000")
	assert.LessOrEqual(t, suffix, "9999")
}
