// Package resource holds the projections of vehicles and users that bookings
// reserve. Profile management lives elsewhere; this service only reads them
// and maintains their availability flags.
package resource

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is a user's role in the rental platform.
type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleDriver Role = "DRIVER"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDriver:
		return true
	}
	return false
}

// ParseRole converts a string to a Role, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return r, nil
}

// Vehicle is the subset of a fleet vehicle the booking core needs.
type Vehicle struct {
	ID               uuid.UUID
	Available        bool
	PricePerDayCents int64
	PricePerKmCents  int64
}

// User is the subset of a platform user the booking core needs.
// Available is only meaningful for drivers.
type User struct {
	ID        uuid.UUID
	Role      Role
	Available bool
}

// IsDriver reports whether the user can be assigned to trips.
func (u User) IsDriver() bool { return u.Role == RoleDriver }
