package application

import (
	"context"
	"time"

	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/internal/domain/resource"
	"github.com/google/uuid"
)

// VehicleCatalog resolves vehicles and maintains their availability flag.
// Inside a transaction Resolve locks the row.
type VehicleCatalog interface {
	Resolve(ctx context.Context, id uuid.UUID) (*resource.Vehicle, error)
	SetAvailable(ctx context.Context, id uuid.UUID, available bool) error
}

// UserDirectory resolves users and maintains the driver availability flag.
// Inside a transaction Resolve locks the row.
type UserDirectory interface {
	Resolve(ctx context.Context, id uuid.UUID) (*resource.User, error)
	SetAvailable(ctx context.Context, id uuid.UUID, available bool) error
}

// Tx is the set of repositories visible to one unit of work.
type Tx interface {
	Bookings() bookingDomain.BookingRepository
	Vehicles() VehicleCatalog
	Users() UserDirectory
}

// Store gives lock-free reads through its embedded Tx and atomic
// read-modify-write units through WithinTx. A non-nil error from fn rolls
// the unit back.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// NotificationSink receives lifecycle events after their transaction commits.
// Delivery is best-effort; implementations handle their own failures.
type NotificationSink interface {
	Notify(ctx context.Context, event Event)
}

// StatsCache stores computed statistics for a short time.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// Clock returns the current time.
type Clock func() time.Time

type noopSink struct{}

func (noopSink) Notify(context.Context, Event) {}

// NoopNotificationSink discards every event.
var NoopNotificationSink NotificationSink = noopSink{}

// FanOutSink delivers each event to every sink in order.
type FanOutSink []NotificationSink

// Notify implements NotificationSink.
func (f FanOutSink) Notify(ctx context.Context, event Event) {
	for _, sink := range f {
		if sink != nil {
			sink.Notify(ctx, event)
		}
	}
}
