package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	customerID    uuid.UUID
	vehicleID     uuid.UUID
	driverID      *uuid.UUID
	dateRange     DateRange

	totalPriceCents      int64
	basePricePerDayCents int64
	distancePriceCents   int64
	distanceKm           float64
	currency             string

	status          Status
	paymentStatus   PaymentStatus
	paymentMethod   string
	specialRequests string
	pickup          Location
	dropoff         Location

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBookingParams holds the inputs for a new booking. Prices are already
// resolved by the caller.
type NewBookingParams struct {
	BookingNumber        string
	CustomerID           uuid.UUID
	VehicleID            uuid.UUID
	DateRange            DateRange
	TotalPriceCents      int64
	BasePricePerDayCents int64
	DistancePriceCents   int64
	DistanceKm           float64
	Currency             string
	PaymentMethod        string
	SpecialRequests      string
	Pickup               Location
	Dropoff              Location
}

// NewBooking creates a new Booking aggregate with status=PENDING and paymentStatus=PENDING.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, error) {
	if p.CustomerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if p.VehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	if p.DateRange.Start().IsZero() {
		return nil, domain.NewValidationError("date range is required")
	}
	if strings.TrimSpace(p.BookingNumber) == "" {
		return nil, domain.NewValidationError("booking number is required")
	}
	if strings.TrimSpace(p.Pickup.Address) == "" {
		return nil, domain.NewValidationError("pickup address is required")
	}
	if strings.TrimSpace(p.Dropoff.Address) == "" {
		return nil, domain.NewValidationError("dropoff address is required")
	}
	if p.DistanceKm < 0 {
		return nil, domain.NewValidationError("distance cannot be negative")
	}
	if p.TotalPriceCents < 0 || p.BasePricePerDayCents < 0 || p.DistancePriceCents < 0 {
		return nil, domain.NewValidationError("prices cannot be negative")
	}
	currency := p.Currency
	if currency == "" {
		currency = domain.CurrencyUSD
	}

	now = now.UTC()
	return &Booking{
		id:                   uuid.New(),
		bookingNumber:        p.BookingNumber,
		customerID:           p.CustomerID,
		vehicleID:            p.VehicleID,
		dateRange:            p.DateRange,
		totalPriceCents:      p.TotalPriceCents,
		basePricePerDayCents: p.BasePricePerDayCents,
		distancePriceCents:   p.DistancePriceCents,
		distanceKm:           p.DistanceKm,
		currency:             currency,
		status:               StatusPending,
		paymentStatus:        PaymentPending,
		paymentMethod:        p.PaymentMethod,
		specialRequests:      p.SpecialRequests,
		pickup:               p.Pickup,
		dropoff:              p.Dropoff,
		version:              1,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// ReconstructParams carries every persisted field of a booking.
type ReconstructParams struct {
	ID                   uuid.UUID
	BookingNumber        string
	CustomerID           uuid.UUID
	VehicleID            uuid.UUID
	DriverID             *uuid.UUID
	DateRange            DateRange
	TotalPriceCents      int64
	BasePricePerDayCents int64
	DistancePriceCents   int64
	DistanceKm           float64
	Currency             string
	Status               Status
	PaymentStatus        PaymentStatus
	PaymentMethod        string
	SpecialRequests      string
	Pickup               Location
	Dropoff              Location
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(p ReconstructParams) *Booking {
	return &Booking{
		id:                   p.ID,
		bookingNumber:        p.BookingNumber,
		customerID:           p.CustomerID,
		vehicleID:            p.VehicleID,
		driverID:             p.DriverID,
		dateRange:            p.DateRange,
		totalPriceCents:      p.TotalPriceCents,
		basePricePerDayCents: p.BasePricePerDayCents,
		distancePriceCents:   p.DistancePriceCents,
		distanceKm:           p.DistanceKm,
		currency:             p.Currency,
		status:               p.Status,
		paymentStatus:        p.PaymentStatus,
		paymentMethod:        p.PaymentMethod,
		specialRequests:      p.SpecialRequests,
		pickup:               p.Pickup,
		dropoff:              p.Dropoff,
		version:              p.Version,
		createdAt:            p.CreatedAt,
		updatedAt:            p.UpdatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// CustomerID returns the renting user's ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// VehicleID returns the reserved vehicle's ID.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// DriverID returns the assigned driver's user ID, or nil if unassigned.
func (b *Booking) DriverID() *uuid.UUID { return b.driverID }

// DateRange returns the inclusive rental period.
func (b *Booking) DateRange() DateRange { return b.dateRange }

// TotalPriceCents returns the total rental price in minor units.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// BasePricePerDayCents returns the daily rate the booking was priced at.
func (b *Booking) BasePricePerDayCents() int64 { return b.basePricePerDayCents }

// DistancePriceCents returns the distance component of the price.
func (b *Booking) DistancePriceCents() int64 { return b.distancePriceCents }

// DistanceKm returns the trip distance used for pricing.
func (b *Booking) DistanceKm() float64 { return b.distanceKm }

// Currency returns the ISO currency code of the prices.
func (b *Booking) Currency() string { return b.currency }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// PaymentStatus returns the current payment status.
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }

// PaymentMethod returns the customer's chosen payment method.
func (b *Booking) PaymentMethod() string { return b.paymentMethod }

// SpecialRequests returns free-text requests from the customer.
func (b *Booking) SpecialRequests() string { return b.specialRequests }

// Pickup returns the pickup location.
func (b *Booking) Pickup() Location { return b.pickup }

// Dropoff returns the dropoff location.
func (b *Booking) Dropoff() Location { return b.dropoff }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsActive reports whether the booking still holds its vehicle and driver.
func (b *Booking) IsActive() bool { return b.status.IsActive() }

// HoldsDriver reports whether driverID is the booking's current driver.
func (b *Booking) HoldsDriver(driverID uuid.UUID) bool {
	return b.driverID != nil && *b.driverID == driverID
}

// TransitionTo applies an explicit status change. Entering a terminal status
// keeps the driver reference for history.
func (b *Booking) TransitionTo(target Status, now time.Time) error {
	if !b.status.CanTransitionTo(target, TriggerStatusUpdate) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = now.UTC()
	return nil
}

// AssignDriver sets the driver and moves the booking to DRIVER_ASSIGNED.
func (b *Booking) AssignDriver(driverID uuid.UUID, now time.Time) error {
	if driverID == uuid.Nil {
		return domain.NewValidationError("driver ID is required")
	}
	if !b.status.CanTransitionTo(StatusDriverAssigned, TriggerAssignment) {
		return domain.NewInvalidStateError(string(b.status), string(StatusDriverAssigned))
	}
	b.driverID = &driverID
	b.status = StatusDriverAssigned
	b.updatedAt = now.UTC()
	return nil
}

// UnassignDriver clears the driver and moves the booking back to PENDING.
func (b *Booking) UnassignDriver(now time.Time) error {
	if !b.status.CanTransitionTo(StatusPending, TriggerAssignment) {
		return domain.NewInvalidStateError(string(b.status), string(StatusPending))
	}
	b.driverID = nil
	b.status = StatusPending
	b.updatedAt = now.UTC()
	return nil
}

// ConfirmPayment marks a completed booking as paid.
func (b *Booking) ConfirmPayment(now time.Time) error {
	if b.status != StatusCompleted {
		return domain.NewInvalidStateMessage(
			fmt.Sprintf("payment can only be confirmed for completed bookings, booking is %s", b.status))
	}
	if b.paymentStatus == PaymentCompleted {
		return domain.NewInvalidStateMessage("payment is already confirmed")
	}
	b.paymentStatus = PaymentCompleted
	b.updatedAt = now.UTC()
	return nil
}

// IsPaid reports whether the payment has been confirmed.
func (b *Booking) IsPaid() bool { return b.paymentStatus == PaymentCompleted }

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
