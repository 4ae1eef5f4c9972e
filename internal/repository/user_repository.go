package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DriveNow-Rental/service-booking/internal/domain/resource"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserModel is the GORM model for the users table, limited to the columns
// bookings depend on.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role      string    `gorm:"type:varchar(20);not null;index"`
	Available bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (UserModel) TableName() string { return "users" }

// GormUserDirectory implements application.UserDirectory using GORM.
type GormUserDirectory struct {
	db   *gorm.DB
	lock bool
}

func NewGormUserDirectory(db *gorm.DB, lock bool) *GormUserDirectory {
	return &GormUserDirectory{db: db, lock: lock}
}

func (d *GormUserDirectory) Resolve(ctx context.Context, id uuid.UUID) (*resource.User, error) {
	q := d.db.WithContext(ctx)
	if d.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model UserModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, translateError(err, "failed to find user")
	}
	role, err := resource.ParseRole(model.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return &resource.User{ID: model.ID, Role: role, Available: model.Available}, nil
}

func (d *GormUserDirectory) SetAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	result := d.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"available":  available,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error, "failed to update user availability")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("User", id.String())
	}
	return nil
}

// Save inserts or replaces a user row.
func (d *GormUserDirectory) Save(ctx context.Context, u resource.User) error {
	model := UserModel{ID: u.ID, Role: string(u.Role), Available: u.Available}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "available", "updated_at"}),
	}).Create(&model).Error
	return translateError(err, "failed to save user")
}
