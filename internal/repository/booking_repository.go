package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber        string          `gorm:"uniqueIndex;not null;size:32"`
	CustomerID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	VehicleID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_bookings_vehicle_dates,priority:1"`
	DriverID             *uuid.UUID      `gorm:"type:uuid;index"`
	StartDate            time.Time       `gorm:"type:date;not null;index:idx_bookings_vehicle_dates,priority:2"`
	EndDate              time.Time       `gorm:"type:date;not null"`
	TotalPriceCents      int64           `gorm:"not null"`
	BasePricePerDayCents int64           `gorm:"not null;default:0"`
	DistancePriceCents   int64           `gorm:"not null;default:0"`
	DistanceKm           float64         `gorm:"type:decimal(10,2);not null;default:0"`
	Currency             string          `gorm:"not null;size:3;default:'USD'"`
	Status               string          `gorm:"not null;size:30;index"`
	PaymentStatus        string          `gorm:"not null;size:20;default:'PENDING'"`
	PaymentMethod        string          `gorm:"size:50"`
	SpecialRequests      string          `gorm:"size:1000"`
	PickupLocation       json.RawMessage `gorm:"type:jsonb;not null"`
	DropoffLocation      json.RawMessage `gorm:"type:jsonb;not null"`
	Version              int64           `gorm:"not null;default:1"`
	CreatedAt            time.Time       `gorm:"not null;index"`
	UpdatedAt            time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

var terminalStatuses = []string{
	string(bookingDomain.StatusCompleted),
	string(bookingDomain.StatusCancelled),
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db   *gorm.DB
	lock bool
}

// NewGormBookingRepository creates a new GormBookingRepository. With lock set,
// FindByID takes a FOR UPDATE row lock.
func NewGormBookingRepository(db *gorm.DB, lock bool) *GormBookingRepository {
	return &GormBookingRepository{db: db, lock: lock}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	q := r.db.WithContext(ctx)
	if r.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model BookingModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, translateError(err, "failed to find booking by ID")
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, translateError(err, "failed to find booking by number")
	}
	return toDomainBooking(&model)
}

// ExistsByNumber reports whether a booking number is taken.
func (r *GormBookingRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("booking_number = ?", number).Count(&count).Error; err != nil {
		return false, translateError(err, "failed to check booking number")
	}
	return count > 0, nil
}

// FindActiveByVehicle returns the non-terminal bookings on a vehicle.
func (r *GormBookingRepository) FindActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.find(r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status NOT IN ?", vehicleID, terminalStatuses).
		Order("start_date ASC"))
}

// FindActiveByDriver returns the non-terminal bookings held by a driver.
func (r *GormBookingRepository) FindActiveByDriver(ctx context.Context, driverID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.find(r.db.WithContext(ctx).
		Where("driver_id = ? AND status NOT IN ?", driverID, terminalStatuses).
		Order("start_date ASC"))
}

// List retrieves matching bookings, newest first, with pagination.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.Filter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&BookingModel{}), filter).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count bookings")
	}

	bookings, err := r.find(applyFilter(r.db.WithContext(ctx), filter).
		Order("created_at DESC").
		Offset(domain.Offset(page, limit)).
		Limit(limit))
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindAll retrieves every matching booking, newest first.
func (r *GormBookingRepository) FindAll(ctx context.Context, filter bookingDomain.Filter) ([]*bookingDomain.Booking, error) {
	return r.find(applyFilter(r.db.WithContext(ctx), filter).Order("created_at DESC"))
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[bookingDomain.Status]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, translateError(err, "failed to count by status")
	}

	counts := make(map[bookingDomain.Status]int64)
	for _, sc := range results {
		counts[bookingDomain.Status(sc.Status)] = sc.Count
	}
	return counts, nil
}

// SumTotalPrice sums total_price_cents over matching bookings.
func (r *GormBookingRepository) SumTotalPrice(ctx context.Context, filter bookingDomain.Filter) (int64, error) {
	var sum int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&BookingModel{}), filter).
		Select("COALESCE(SUM(total_price_cents), 0)").
		Scan(&sum).Error; err != nil {
		return 0, translateError(err, "failed to sum booking totals")
	}
	return sum, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "failed to save booking")
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// The aggregate has already been bumped by IncrementVersion.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"driver_id":      model.DriverID,
			"status":         model.Status,
			"payment_status": model.PaymentStatus,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, "failed to update booking")
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// Delete removes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return translateError(result.Error, "failed to delete booking")
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

func (r *GormBookingRepository) find(q *gorm.DB) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := q.Find(&models).Error; err != nil {
		return nil, translateError(err, "failed to find bookings")
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

func applyFilter(q *gorm.DB, f bookingDomain.Filter) *gorm.DB {
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	return q
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	pickupJSON, err := json.Marshal(bk.Pickup())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup location: %w", err)
	}

	dropoffJSON, err := json.Marshal(bk.Dropoff())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dropoff location: %w", err)
	}

	return &BookingModel{
		ID:                   bk.ID(),
		BookingNumber:        bk.BookingNumber(),
		CustomerID:           bk.CustomerID(),
		VehicleID:            bk.VehicleID(),
		DriverID:             bk.DriverID(),
		StartDate:            bk.DateRange().Start(),
		EndDate:              bk.DateRange().End(),
		TotalPriceCents:      bk.TotalPriceCents(),
		BasePricePerDayCents: bk.BasePricePerDayCents(),
		DistancePriceCents:   bk.DistancePriceCents(),
		DistanceKm:           bk.DistanceKm(),
		Currency:             bk.Currency(),
		Status:               string(bk.Status()),
		PaymentStatus:        string(bk.PaymentStatus()),
		PaymentMethod:        bk.PaymentMethod(),
		SpecialRequests:      bk.SpecialRequests(),
		PickupLocation:       pickupJSON,
		DropoffLocation:      dropoffJSON,
		Version:              bk.Version(),
		CreatedAt:            bk.CreatedAt(),
		UpdatedAt:            bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var pickup bookingDomain.Location
	if err := json.Unmarshal(m.PickupLocation, &pickup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pickup location: %w", err)
	}

	var dropoff bookingDomain.Location
	if err := json.Unmarshal(m.DropoffLocation, &dropoff); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dropoff location: %w", err)
	}

	dateRange, err := bookingDomain.NewDateRange(m.StartDate, m.EndDate)
	if err != nil {
		return nil, fmt.Errorf("booking %s has an invalid date range: %w", m.ID, err)
	}

	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	paymentStatus, err := bookingDomain.ParsePaymentStatus(m.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return bookingDomain.Reconstruct(bookingDomain.ReconstructParams{
		ID:                   m.ID,
		BookingNumber:        m.BookingNumber,
		CustomerID:           m.CustomerID,
		VehicleID:            m.VehicleID,
		DriverID:             m.DriverID,
		DateRange:            dateRange,
		TotalPriceCents:      m.TotalPriceCents,
		BasePricePerDayCents: m.BasePricePerDayCents,
		DistancePriceCents:   m.DistancePriceCents,
		DistanceKm:           m.DistanceKm,
		Currency:             m.Currency,
		Status:               status,
		PaymentStatus:        paymentStatus,
		PaymentMethod:        m.PaymentMethod,
		SpecialRequests:      m.SpecialRequests,
		Pickup:               pickup,
		Dropoff:              dropoff,
		Version:              m.Version,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}), nil
}
