package application

import (
	"context"
	"errors"
	"time"

	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/internal/domain/resource"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignDriverRequest is the body of an assignment call. A nil DriverID
// releases the current driver.
type AssignDriverRequest struct {
	DriverID *uuid.UUID `json:"driver_id"`
}

// AssignmentService assigns, reassigns and releases drivers on bookings.
type AssignmentService struct {
	store    Store
	guard    *AvailabilityGuard
	notifier NotificationSink
	now      Clock
	logger   *zap.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(store Store, guard *AvailabilityGuard, notifier NotificationSink, logger *zap.Logger) *AssignmentService {
	if notifier == nil {
		notifier = NoopNotificationSink
	}
	return &AssignmentService{
		store:    store,
		guard:    guard,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the time source.
func (s *AssignmentService) SetClock(now Clock) {
	s.now = now
}

// AssignDriver sets driverID on the booking, or releases the current driver
// when driverID is nil. The driver goes through the availability guard even
// when the booking already holds it.
func (s *AssignmentService) AssignDriver(ctx context.Context, bookingID uuid.UUID, driverID *uuid.UUID) (*BookingDTO, error) {
	var (
		bk       *bookingDomain.Booking
		previous *uuid.UUID
		changed  bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		bk, err = tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		previous = copyID(bk.DriverID())

		if driverID == nil {
			if previous == nil && bk.Status() == bookingDomain.StatusPending {
				return nil
			}
			if err := bk.UnassignDriver(s.now()); err != nil {
				return err
			}
			bk.IncrementVersion()
			if err := tx.Bookings().Update(ctx, bk); err != nil {
				return err
			}
			changed = true
			return s.guard.Sync(ctx, tx, nil, driverIDs(previous))
		}

		if !bk.Status().CanTransitionTo(bookingDomain.StatusDriverAssigned, bookingDomain.TriggerAssignment) {
			return domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusDriverAssigned))
		}
		driver, err := s.lockDrivers(ctx, tx, *driverID, previous)
		if err != nil {
			return err
		}
		if !driver.IsDriver() {
			return domain.NewInvalidRoleError(driver.ID.String(), string(driver.Role))
		}
		if err := s.guard.CheckDriver(ctx, tx, driver, bk.DateRange(), bk.ID()); err != nil {
			return err
		}

		if err := bk.AssignDriver(driver.ID, s.now()); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := tx.Bookings().Update(ctx, bk); err != nil {
			return err
		}
		changed = true
		return s.guard.Sync(ctx, tx, nil, append(driverIDs(previous), driver.ID))
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("booking driver changed",
			zap.String("booking_id", bk.ID().String()),
			zap.Stringp("driver_id", idString(bk.DriverID())),
			zap.Stringp("previous_driver_id", idString(previous)),
		)
		s.notifier.Notify(ctx, Event{
			Type:          EventDriverAssigned,
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			CustomerID:    bk.CustomerID(),
			DriverIDs:     sortedUnique(append(driverIDs(previous), driverIDs(bk.DriverID())...)),
			OccurredAt:    s.now().UTC(),
			Payload: DriverAssignedPayload{
				BookingID:        bk.ID(),
				BookingNumber:    bk.BookingNumber(),
				CustomerID:       bk.CustomerID(),
				DriverID:         bk.DriverID(),
				PreviousDriverID: previous,
				Status:           string(bk.Status()),
				OccurredAt:       s.now().UTC(),
			},
		})
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// lockDrivers resolves the new driver and the previous one in ID order so
// concurrent reassignments lock rows consistently. It returns the new driver.
func (s *AssignmentService) lockDrivers(ctx context.Context, tx Tx, next uuid.UUID, previous *uuid.UUID) (*resource.User, error) {
	var driver *resource.User
	for _, id := range sortedUnique(append(driverIDs(previous), next)) {
		u, err := tx.Users().Resolve(ctx, id)
		if id != next {
			// The previous driver may have been removed from the directory.
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		driver = u
	}
	return driver, nil
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
