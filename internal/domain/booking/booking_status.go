package booking

import (
	"fmt"
	"strings"
)

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusDriverAssigned Status = "DRIVER_ASSIGNED"
	StatusOngoing        Status = "ONGOING"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

// Trigger names the operation that drives a transition.
type Trigger int

const (
	// TriggerStatusUpdate is an explicit status change requested by a caller.
	TriggerStatusUpdate Trigger = iota
	// TriggerAssignment is a driver assign, reassign or release.
	TriggerAssignment
)

// validTransitions is the booking state machine. A target is legal only
// through the trigger listed for it.
var validTransitions = map[Status]map[Status]Trigger{
	StatusPending: {
		StatusConfirmed:      TriggerStatusUpdate,
		StatusCancelled:      TriggerStatusUpdate,
		StatusDriverAssigned: TriggerAssignment,
		StatusPending:        TriggerAssignment,
	},
	StatusDriverAssigned: {
		StatusOngoing:        TriggerStatusUpdate,
		StatusCancelled:      TriggerStatusUpdate,
		StatusDriverAssigned: TriggerAssignment,
		StatusPending:        TriggerAssignment,
	},
	StatusConfirmed: {
		StatusOngoing:   TriggerStatusUpdate,
		StatusCancelled: TriggerStatusUpdate,
	},
	StatusOngoing: {
		StatusCompleted: TriggerStatusUpdate,
		StatusCancelled: TriggerStatusUpdate,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// AllStatuses lists every status in display order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusDriverAssigned,
	StatusOngoing,
	StatusCompleted,
	StatusCancelled,
}

// TerminalStatuses are the statuses that release held resources.
var TerminalStatuses = []Status{StatusCompleted, StatusCancelled}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if target is reachable from s through trigger.
func (s Status) CanTransitionTo(target Status, trigger Trigger) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	t, ok := allowed[target]
	return ok && t == trigger
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsActive reports whether a booking in this status holds its vehicle and driver.
func (s Status) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// PaymentStatus is the payment axis of a booking, independent of Status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// IsValid returns true if the payment status is recognized.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// ParsePaymentStatus converts a string to a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	p := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid payment status: %s", s)
	}
	return p, nil
}
