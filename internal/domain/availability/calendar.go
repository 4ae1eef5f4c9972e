// Package availability tracks which date ranges each vehicle or driver is
// reserved for.
package availability

import (
	"sort"

	"github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// Reservation is one booking's hold on a resource.
type Reservation struct {
	BookingID uuid.UUID
	Range     booking.DateRange
}

// Calendar holds reservation intervals per resource ID.
// It is not safe for concurrent use; build one per transaction.
type Calendar struct {
	byResource map[uuid.UUID][]Reservation
}

// NewCalendar creates an empty calendar.
func NewCalendar() *Calendar {
	return &Calendar{byResource: make(map[uuid.UUID][]Reservation)}
}

// ForVehicles builds a calendar from the active bookings, keyed by vehicle.
func ForVehicles(bookings []*booking.Booking) *Calendar {
	c := NewCalendar()
	for _, b := range bookings {
		if b.IsActive() {
			c.Add(b.VehicleID(), Reservation{BookingID: b.ID(), Range: b.DateRange()})
		}
	}
	return c
}

// ForDrivers builds a calendar from the active bookings, keyed by driver.
func ForDrivers(bookings []*booking.Booking) *Calendar {
	c := NewCalendar()
	for _, b := range bookings {
		if b.IsActive() && b.DriverID() != nil {
			c.Add(*b.DriverID(), Reservation{BookingID: b.ID(), Range: b.DateRange()})
		}
	}
	return c
}

// Add records a reservation, keeping each resource's list ordered by start.
func (c *Calendar) Add(resourceID uuid.UUID, r Reservation) {
	list := append(c.byResource[resourceID], r)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Range.Start().Before(list[j].Range.Start())
	})
	c.byResource[resourceID] = list
}

// Conflicts returns the reservations on resourceID overlapping rng,
// ignoring the one made by exclude.
func (c *Calendar) Conflicts(resourceID uuid.UUID, rng booking.DateRange, exclude uuid.UUID) []Reservation {
	var out []Reservation
	for _, r := range c.byResource[resourceID] {
		if r.BookingID == exclude {
			continue
		}
		if r.Range.Start().After(rng.End()) {
			break
		}
		if r.Range.Overlaps(rng) {
			out = append(out, r)
		}
	}
	return out
}

// IsFree reports whether resourceID has no reservation overlapping rng
// other than the one made by exclude.
func (c *Calendar) IsFree(resourceID uuid.UUID, rng booking.DateRange, exclude uuid.UUID) bool {
	return len(c.Conflicts(resourceID, rng, exclude)) == 0
}

// Held reports whether any reservation other than exclude holds resourceID.
func (c *Calendar) Held(resourceID uuid.UUID, exclude uuid.UUID) bool {
	for _, r := range c.byResource[resourceID] {
		if r.BookingID != exclude {
			return true
		}
	}
	return false
}

// Reservations returns a copy of the reservations on resourceID.
func (c *Calendar) Reservations(resourceID uuid.UUID) []Reservation {
	list := c.byResource[resourceID]
	out := make([]Reservation, len(list))
	copy(out, list)
	return out
}
