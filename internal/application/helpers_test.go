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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Notify(ctx context.Context, event application.Event) {
	m.Called(ctx, event)
}

func (m *mockSink) eventTypes() []application.EventType {
	var out []application.EventType
	for _, c := range m.Calls {
		out = append(out, c.Arguments.Get(1).(application.Event).Type)
	}
	return out
}

type fixture struct {
	store      *memstore.Store
	sink       *mockSink
	bookings   *application.BookingService
	assignment *application.AssignmentService
	customer   uuid.UUID
	vehicle    uuid.UUID
}

func newFixture(t *testing.T, advanceReservations bool, opts ...application.BookingOption) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.New()
	sink := &mockSink{}
	sink.On("Notify", mock.Anything, mock.Anything).Return()

	guard := application.NewAvailabilityGuard(advanceReservations, logger)
	f := &fixture{
		store:      store,
		sink:       sink,
		bookings:   application.NewBookingService(store, guard, bookingDomain.NewRentalPricingStrategy(), sink, logger, opts...),
		assignment: application.NewAssignmentService(store, guard, sink, logger),
		customer:   uuid.New(),
		vehicle:    uuid.New(),
	}
	store.PutUser(resource.User{ID: f.customer, Role: resource.RoleUser, Available: true})
	store.PutVehicle(resource.Vehicle{ID: f.vehicle, Available: true, PricePerDayCents: 4000, PricePerKmCents: 50})
	return f
}

func (f *fixture) addDriver(available bool) uuid.UUID {
	id := uuid.New()
	f.store.PutUser(resource.User{ID: id, Role: resource.RoleDriver, Available: available})
	return id
}

func (f *fixture) request(start, end string) application.CreateBookingRequest {
	return application.CreateBookingRequest{
		CustomerID: f.customer,
		VehicleID:  f.vehicle,
		StartDate:  start,
		EndDate:    end,
		Pickup:     bookingDomain.Location{Address: "1 Depot Way"},
		Dropoff:    bookingDomain.Location{Address: "22 Airport Rd"},
	}
}

func (f *fixture) create(t *testing.T, start, end string) *application.BookingDTO {
	t.Helper()
	dto, err := f.bookings.CreateBooking(context.Background(), f.request(start, end))
	require.NoError(t, err)
	return dto
}

func (f *fixture) vehicleAvailable(t *testing.T) bool {
	t.Helper()
	v, ok := f.store.Vehicle(f.vehicle)
	require.True(t, ok)
	return v.Available
}

func (f *fixture) driverAvailable(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	u, ok := f.store.User(id)
	require.True(t, ok)
	return u.Available
}

func (f *fixture) setStatus(t *testing.T, id uuid.UUID, statuses ...bookingDomain.Status) {
	t.Helper()
	for _, s := range statuses {
		_, err := f.bookings.UpdateStatus(context.Background(), id, string(s))
		require.NoError(t, err)
	}
}

func fixedClock(t time.Time) application.Clock {
	return func() time.Time { return t }
}
