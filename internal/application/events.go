package application

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a booking lifecycle event.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventStatusChanged    EventType = "booking.status_changed"
	EventDriverAssigned   EventType = "booking.driver_assigned"
	EventPaymentConfirmed EventType = "booking.payment_confirmed"
	EventBookingDeleted   EventType = "booking.deleted"
)

// Event is a committed change to a booking. Payload is one of the
// *Payload types below. CustomerID and DriverIDs name every user whose
// figures the change touches, including a driver that was just released.
type Event struct {
	Type          EventType
	BookingID     uuid.UUID
	BookingNumber string
	CustomerID    uuid.UUID
	DriverIDs     []uuid.UUID
	OccurredAt    time.Time
	Payload       any
}

// BookingCreatedPayload describes a new booking.
type BookingCreatedPayload struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	CustomerID      uuid.UUID `json:"customer_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// StatusChangedPayload describes an explicit status transition.
type StatusChangedPayload struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	DriverID      *uuid.UUID `json:"driver_id,omitempty"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// DriverAssignedPayload describes an assign, reassign or release.
// DriverID is nil when the driver was released.
type DriverAssignedPayload struct {
	BookingID        uuid.UUID  `json:"booking_id"`
	BookingNumber    string     `json:"booking_number"`
	CustomerID       uuid.UUID  `json:"customer_id"`
	DriverID         *uuid.UUID `json:"driver_id,omitempty"`
	PreviousDriverID *uuid.UUID `json:"previous_driver_id,omitempty"`
	Status           string     `json:"status"`
	OccurredAt       time.Time  `json:"occurred_at"`
}

// PaymentConfirmedPayload describes a confirmed payment.
type PaymentConfirmedPayload struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	CustomerID      uuid.UUID `json:"customer_id"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingDeletedPayload describes a hard delete.
type BookingDeletedPayload struct {
	BookingID     uuid.UUID  `json:"booking_id"`
	BookingNumber string     `json:"booking_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	DriverID      *uuid.UUID `json:"driver_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
