package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/DriveNow-Rental/service-booking/internal/domain/availability"
	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/internal/domain/resource"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityGuard owns the vehicle and driver availability flags. Every
// commit path that changes what a booking holds calls Sync once, after its
// booking writes and before commit.
//
// In strict mode a flagged-unavailable resource cannot be reserved at all.
// With advance reservations enabled only overlapping date ranges conflict,
// and the flag keeps meaning "held by some active booking".
type AvailabilityGuard struct {
	advanceReservations bool
	logger              *zap.Logger
}

// NewAvailabilityGuard creates a new AvailabilityGuard.
func NewAvailabilityGuard(advanceReservations bool, logger *zap.Logger) *AvailabilityGuard {
	return &AvailabilityGuard{
		advanceReservations: advanceReservations,
		logger:              logger,
	}
}

// CheckVehicle returns a ConflictError if vehicle cannot be reserved for rng.
// exclude names a booking whose own hold is ignored.
func (g *AvailabilityGuard) CheckVehicle(ctx context.Context, tx Tx, vehicle *resource.Vehicle, rng bookingDomain.DateRange, exclude uuid.UUID) error {
	if !g.advanceReservations && !vehicle.Available {
		return domain.NewConflictError(fmt.Sprintf("vehicle %s is not available", vehicle.ID))
	}

	active, err := tx.Bookings().FindActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		return fmt.Errorf("failed to load vehicle reservations: %w", err)
	}
	conflicts := availability.ForVehicles(active).Conflicts(vehicle.ID, rng, exclude)
	if len(conflicts) > 0 {
		return domain.NewConflictError(fmt.Sprintf(
			"vehicle %s is already booked for %s", vehicle.ID, conflicts[0].Range))
	}
	return nil
}

// CheckDriver returns a DriverUnavailableError if driver cannot take a trip
// over rng. exclude names a booking whose own hold is ignored.
func (g *AvailabilityGuard) CheckDriver(ctx context.Context, tx Tx, driver *resource.User, rng bookingDomain.DateRange, exclude uuid.UUID) error {
	active, err := tx.Bookings().FindActiveByDriver(ctx, driver.ID)
	if err != nil {
		return fmt.Errorf("failed to load driver trips: %w", err)
	}
	cal := availability.ForDrivers(active)

	if g.advanceReservations {
		if !cal.IsFree(driver.ID, rng, exclude) {
			return domain.NewDriverUnavailableError(driver.ID.String())
		}
		return nil
	}
	if !driver.Available || cal.Held(driver.ID, exclude) {
		return domain.NewDriverUnavailableError(driver.ID.String())
	}
	return nil
}

// Sync recomputes the availability flag of every listed vehicle and driver
// from the active bookings in tx, writing only the flags that changed.
// Vehicles are visited before drivers, each in ID order.
func (g *AvailabilityGuard) Sync(ctx context.Context, tx Tx, vehicleIDs, driverIDs []uuid.UUID) error {
	for _, id := range sortedUnique(vehicleIDs) {
		active, err := tx.Bookings().FindActiveByVehicle(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load vehicle reservations: %w", err)
		}
		v, err := tx.Vehicles().Resolve(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				g.logger.Warn("skipping availability sync for missing vehicle", zap.String("vehicle_id", id.String()))
				continue
			}
			return err
		}
		want := len(active) == 0
		if v.Available != want {
			if err := tx.Vehicles().SetAvailable(ctx, id, want); err != nil {
				return fmt.Errorf("failed to update vehicle availability: %w", err)
			}
		}
	}

	for _, id := range sortedUnique(driverIDs) {
		active, err := tx.Bookings().FindActiveByDriver(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load driver trips: %w", err)
		}
		u, err := tx.Users().Resolve(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				g.logger.Warn("skipping availability sync for missing driver", zap.String("driver_id", id.String()))
				continue
			}
			return err
		}
		want := len(active) == 0
		if u.Available != want {
			if err := tx.Users().SetAvailable(ctx, id, want); err != nil {
				return fmt.Errorf("failed to update driver availability: %w", err)
			}
		}
	}
	return nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
