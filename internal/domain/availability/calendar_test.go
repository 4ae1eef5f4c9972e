package availability

import (
	"testing"
	"time"

	"github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(t *testing.T, start, end string) booking.DateRange {
	t.Helper()
	r, err := booking.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func newBooking(t *testing.T, vehicleID uuid.UUID, start, end string) *booking.Booking {
	t.Helper()
	b, err := booking.NewBooking(booking.NewBookingParams{
		BookingNumber: "BK" + uuid.NewString(),
		CustomerID:    uuid.New(),
		VehicleID:     vehicleID,
		DateRange:     rng(t, start, end),
		Pickup:        booking.Location{Address: "a"},
		Dropoff:       booking.Location{Address: "b"},
	}, time.Now())
	require.NoError(t, err)
	return b
}

func TestCalendar_Conflicts(t *testing.T) {
	vehicle := uuid.New()
	c := NewCalendar()
	first, second := uuid.New(), uuid.New()
	c.Add(vehicle, Reservation{BookingID: second, Range: rng(t, "2024-06-10", "2024-06-12")})
	c.Add(vehicle, Reservation{BookingID: first, Range: rng(t, "2024-06-01", "2024-06-05")})

	got := c.Conflicts(vehicle, rng(t, "2024-06-04", "2024-06-10"), uuid.Nil)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].BookingID)
	assert.Equal(t, second, got[1].BookingID)

	assert.True(t, c.IsFree(vehicle, rng(t, "2024-06-06", "2024-06-09"), uuid.Nil))
	assert.True(t, c.IsFree(vehicle, rng(t, "2024-06-01", "2024-06-02"), first))
	assert.True(t, c.IsFree(uuid.New(), rng(t, "2024-06-01", "2024-06-30"), uuid.Nil))
}

func TestCalendar_Held(t *testing.T) {
	vehicle := uuid.New()
	c := NewCalendar()
	id := uuid.New()
	c.Add(vehicle, Reservation{BookingID: id, Range: rng(t, "2024-06-01", "2024-06-01")})

	assert.True(t, c.Held(vehicle, uuid.Nil))
	assert.False(t, c.Held(vehicle, id))
	assert.Len(t, c.Reservations(vehicle), 1)
}

func TestForVehicles_SkipsTerminal(t *testing.T) {
	vehicle := uuid.New()
	active := newBooking(t, vehicle, "2024-06-01", "2024-06-05")
	cancelled := newBooking(t, vehicle, "2024-06-10", "2024-06-15")
	require.NoError(t, cancelled.TransitionTo(booking.StatusCancelled, time.Now()))

	c := ForVehicles([]*booking.Booking{active, cancelled})
	assert.True(t, c.IsFree(vehicle, rng(t, "2024-06-10", "2024-06-15"), uuid.Nil))
	assert.False(t, c.IsFree(vehicle, rng(t, "2024-06-05", "2024-06-06"), uuid.Nil))
}

func TestForDrivers(t *testing.T) {
	driver := uuid.New()
	b := newBooking(t, uuid.New(), "2024-06-01", "2024-06-05")
	require.NoError(t, b.AssignDriver(driver, time.Now()))
	unassigned := newBooking(t, uuid.New(), "2024-06-01", "2024-06-05")

	c := ForDrivers([]*booking.Booking{b, unassigned})
	assert.True(t, c.Held(driver, uuid.Nil))
	assert.False(t, c.IsFree(driver, rng(t, "2024-06-03", "2024-06-03"), uuid.Nil))
}
