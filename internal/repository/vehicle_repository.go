package repository

import (
	"context"
	"errors"
	"time"

	"github.com/DriveNow-Rental/service-booking/internal/domain/resource"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VehicleModel is the GORM model for the vehicles table. The fleet service
// owns the other vehicle columns; this service reads prices and maintains
// the availability flag.
type VehicleModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Available        bool      `gorm:"not null;default:true"`
	PricePerDayCents int64     `gorm:"not null;default:0"`
	PricePerKmCents  int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// GormVehicleCatalog implements application.VehicleCatalog using GORM.
type GormVehicleCatalog struct {
	db   *gorm.DB
	lock bool
}

// NewGormVehicleCatalog creates a catalog. With lock set, Resolve takes
// a FOR UPDATE row lock, which only lasts inside a transaction.
func NewGormVehicleCatalog(db *gorm.DB, lock bool) *GormVehicleCatalog {
	return &GormVehicleCatalog{db: db, lock: lock}
}

func (c *GormVehicleCatalog) Resolve(ctx context.Context, id uuid.UUID) (*resource.Vehicle, error) {
	q := c.db.WithContext(ctx)
	if c.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model VehicleModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, translateError(err, "failed to find vehicle")
	}
	return &resource.Vehicle{
		ID:               model.ID,
		Available:        model.Available,
		PricePerDayCents: model.PricePerDayCents,
		PricePerKmCents:  model.PricePerKmCents,
	}, nil
}

func (c *GormVehicleCatalog) SetAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	result := c.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"available":  available,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "failed to update vehicle availability")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Vehicle", id.String())
	}
	return nil
}

// Save inserts or replaces a vehicle row.
func (c *GormVehicleCatalog) Save(ctx context.Context, v resource.Vehicle) error {
	model := VehicleModel{
		ID:               v.ID,
		Available:        v.Available,
		PricePerDayCents: v.PricePerDayCents,
		PricePerKmCents:  v.PricePerKmCents,
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"available", "price_per_day_cents", "price_per_km_cents", "updated_at"}),
	}).Create(&model).Error
	return translateError(err, "failed to save vehicle")
}
