package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/internal/domain/resource"
	"github.com/DriveNow-Rental/service-booking/internal/repository/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAvailabilityGuard_SyncRepairsStaleFlags(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	guard := application.NewAvailabilityGuard(false, zap.NewNop())

	vehicle, driver := uuid.New(), uuid.New()
	store.PutVehicle(resource.Vehicle{ID: vehicle, Available: true})
	store.PutUser(resource.User{ID: driver, Role: resource.RoleDriver, Available: true})

	rng, err := bookingDomain.ParseDateRange("2024-06-01", "2024-06-02")
	require.NoError(t, err)
	b, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		BookingNumber: "BK42",
		CustomerID:    uuid.New(),
		VehicleID:     vehicle,
		DateRange:     rng,
		Pickup:        bookingDomain.Location{Address: "a"},
		Dropoff:       bookingDomain.Location{Address: "b"},
	}, rng.Start())
	require.NoError(t, err)
	require.NoError(t, b.AssignDriver(driver, time.Now()))
	store.PutBooking(b)

	err = store.WithinTx(ctx, func(ctx context.Context, tx application.Tx) error {
		return guard.Sync(ctx, tx, []uuid.UUID{vehicle, vehicle}, []uuid.UUID{driver, uuid.Nil})
	})
	require.NoError(t, err)

	v, _ := store.Vehicle(vehicle)
	u, _ := store.User(driver)
	assert.False(t, v.Available)
	assert.False(t, u.Available)
}

func TestAvailabilityGuard_SyncSkipsMissingResources(t *testing.T) {
	store := memstore.New()
	guard := application.NewAvailabilityGuard(false, zap.NewNop())

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx application.Tx) error {
		return guard.Sync(ctx, tx, []uuid.UUID{uuid.New()}, []uuid.UUID{uuid.New()})
	})
	assert.NoError(t, err)
}

func TestAvailabilityGuard_CheckVehicleIgnoresExcludedBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	b := f.create(t, "2024-06-01", "2024-06-05")
	guard := application.NewAvailabilityGuard(true, zap.NewNop())
	rng, err := bookingDomain.ParseDateRange("2024-06-02", "2024-06-03")
	require.NoError(t, err)

	err = f.store.WithinTx(ctx, func(ctx context.Context, tx application.Tx) error {
		v, err := tx.Vehicles().Resolve(ctx, f.vehicle)
		if err != nil {
			return err
		}
		return guard.CheckVehicle(ctx, tx, v, rng, b.ID)
	})
	assert.NoError(t, err)
}

func TestMemstore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	err := f.store.WithinTx(ctx, func(ctx context.Context, tx application.Tx) error {
		require.NoError(t, tx.Vehicles().SetAvailable(ctx, f.vehicle, false))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, f.vehicleAvailable(t))
}
