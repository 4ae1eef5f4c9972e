package repository

import (
	"context"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"gorm.io/gorm"
)

// GormStore is the Postgres-backed application.Store.
type GormStore struct {
	db *gorm.DB
}

var _ application.Store = (*GormStore)(nil)

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// WithinTx runs fn inside one database transaction. Repositories handed to
// fn take row locks on the rows they resolve by ID.
func (s *GormStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormTx{db: tx})
	})
	return translateError(err, "transaction failed")
}

// Bookings returns a lock-free booking repository.
func (s *GormStore) Bookings() bookingDomain.BookingRepository {
	return NewGormBookingRepository(s.db, false)
}

// Vehicles returns a lock-free vehicle catalog.
func (s *GormStore) Vehicles() application.VehicleCatalog {
	return NewGormVehicleCatalog(s.db, false)
}

// Users returns a lock-free user directory.
func (s *GormStore) Users() application.UserDirectory {
	return NewGormUserDirectory(s.db, false)
}

// AutoMigrate creates or updates the tables the store uses.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&BookingModel{}, &VehicleModel{}, &UserModel{})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Bookings() bookingDomain.BookingRepository {
	return NewGormBookingRepository(t.db, true)
}

func (t *gormTx) Vehicles() application.VehicleCatalog {
	return NewGormVehicleCatalog(t.db, true)
}

func (t *gormTx) Users() application.UserDirectory {
	return NewGormUserDirectory(t.db, true)
}
