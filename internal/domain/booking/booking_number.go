package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

const bookingNumberPrefix = "BK"

// NumberGenerator produces booking numbers. Uniqueness is enforced by the
// store, which asks for a fresh number on collision.
type NumberGenerator func(now time.Time) (string, error)

// GenerateBookingNumber creates a number of the form "BK<unix millis><1000-9999>".
func GenerateBookingNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate booking number: %w", err)
	}
	return bookingNumberPrefix + strconv.FormatInt(now.UnixMilli(), 10) + strconv.FormatInt(n.Int64()+1000, 10), nil
}
