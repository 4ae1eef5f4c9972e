package booking

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows booking queries. Nil fields match everything.
type Filter struct {
	CustomerID *uuid.UUID
	DriverID   *uuid.UUID
	Status     *Status
}

// BookingRepository defines the persistence contract for booking aggregates.
// Repositories bound to a transaction lock the rows FindByID returns.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// ExistsByNumber reports whether a booking number is already taken.
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// FindActiveByVehicle returns the non-terminal bookings holding a vehicle.
	FindActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*Booking, error)

	// FindActiveByDriver returns the non-terminal bookings holding a driver.
	FindActiveByDriver(ctx context.Context, driverID uuid.UUID) ([]*Booking, error)

	// List retrieves matching bookings, newest first, with pagination.
	List(ctx context.Context, filter Filter, page, limit int) ([]*Booking, int64, error)

	// FindAll retrieves every matching booking, newest first.
	FindAll(ctx context.Context, filter Filter) ([]*Booking, error)

	// CountByStatus returns booking counts grouped by status.
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// SumTotalPrice sums totalPriceCents over matching bookings.
	SumTotalPrice(ctx context.Context, filter Filter) (int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete removes a booking.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Matches reports whether b satisfies the filter.
func (f Filter) Matches(b *Booking) bool {
	if f.CustomerID != nil && b.CustomerID() != *f.CustomerID {
		return false
	}
	if f.DriverID != nil && !b.HoldsDriver(*f.DriverID) {
		return false
	}
	if f.Status != nil && b.Status() != *f.Status {
		return false
	}
	return true
}
