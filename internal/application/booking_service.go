package application

import (
	"context"
	"fmt"
	"math"
	"time"

	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// CreateBookingRequest holds the data needed to create a new booking.
// Price fields are optional; when TotalPriceCents is nil the price is
// computed from the vehicle's rates.
type CreateBookingRequest struct {
	CustomerID           uuid.UUID              `json:"customer_id"`
	VehicleID            uuid.UUID              `json:"vehicle_id"`
	StartDate            string                 `json:"start_date" binding:"required"`
	EndDate              string                 `json:"end_date" binding:"required"`
	Pickup               bookingDomain.Location `json:"pickup"`
	Dropoff              bookingDomain.Location `json:"dropoff"`
	DistanceKm           *float64               `json:"distance_km"`
	TotalPriceCents      *int64                 `json:"total_price_cents"`
	BasePricePerDayCents *int64                 `json:"base_price_per_day_cents"`
	DistancePriceCents   *int64                 `json:"distance_price_cents"`
	Currency             string                 `json:"currency"`
	PaymentMethod        string                 `json:"payment_method"`
	SpecialRequests      string                 `json:"special_requests"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                   uuid.UUID              `json:"id"`
	BookingNumber        string                 `json:"booking_number"`
	CustomerID           uuid.UUID              `json:"customer_id"`
	VehicleID            uuid.UUID              `json:"vehicle_id"`
	DriverID             *uuid.UUID             `json:"driver_id,omitempty"`
	StartDate            string                 `json:"start_date"`
	EndDate              string                 `json:"end_date"`
	Days                 int                    `json:"days"`
	TotalPriceCents      int64                  `json:"total_price_cents"`
	BasePricePerDayCents int64                  `json:"base_price_per_day_cents"`
	DistancePriceCents   int64                  `json:"distance_price_cents"`
	DistanceKm           float64                `json:"distance_km"`
	Currency             string                 `json:"currency"`
	Status               string                 `json:"status"`
	PaymentStatus        string                 `json:"payment_status"`
	PaymentMethod        string                 `json:"payment_method,omitempty"`
	SpecialRequests      string                 `json:"special_requests,omitempty"`
	Pickup               bookingDomain.Location `json:"pickup"`
	Dropoff              bookingDomain.Location `json:"dropoff"`
	Version              int64                  `json:"version"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// BookingOption customizes a BookingService.
type BookingOption func(*BookingService)

// WithClock overrides the time source.
func WithClock(now Clock) BookingOption {
	return func(s *BookingService) { s.now = now }
}

// WithNumberGenerator overrides booking number generation.
func WithNumberGenerator(gen bookingDomain.NumberGenerator) BookingOption {
	return func(s *BookingService) { s.numbers = gen }
}

// WithNumberAttempts bounds how many booking numbers are tried per create.
func WithNumberAttempts(n int) BookingOption {
	return func(s *BookingService) {
		if n > 0 {
			s.numberAttempts = n
		}
	}
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	store          Store
	guard          *AvailabilityGuard
	pricing        bookingDomain.PricingStrategy
	notifier       NotificationSink
	numbers        bookingDomain.NumberGenerator
	numberAttempts int
	now            Clock
	logger         *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	store Store,
	guard *AvailabilityGuard,
	pricing bookingDomain.PricingStrategy,
	notifier NotificationSink,
	logger *zap.Logger,
	opts ...BookingOption,
) *BookingService {
	if notifier == nil {
		notifier = NoopNotificationSink
	}
	s := &BookingService{
		store:          store,
		guard:          guard,
		pricing:        pricing,
		notifier:       notifier,
		numbers:        bookingDomain.GenerateBookingNumber,
		numberAttempts: 5,
		now:            time.Now,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking reserves a vehicle for a date range.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	if req.CustomerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if req.VehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	rng, err := bookingDomain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	distanceKm := resolveDistance(req)
	if distanceKm < 0 {
		return nil, domain.NewValidationError("distance cannot be negative")
	}

	var bk *bookingDomain.Booking
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		vehicle, err := tx.Vehicles().Resolve(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if _, err := tx.Users().Resolve(ctx, req.CustomerID); err != nil {
			return err
		}
		if err := s.guard.CheckVehicle(ctx, tx, vehicle, rng, uuid.Nil); err != nil {
			return err
		}

		quote, err := s.quote(req, rng, distanceKm, vehicle.PricePerDayCents, vehicle.PricePerKmCents)
		if err != nil {
			return err
		}
		number, err := s.nextBookingNumber(ctx, tx)
		if err != nil {
			return err
		}

		bk, err = bookingDomain.NewBooking(bookingDomain.NewBookingParams{
			BookingNumber:        number,
			CustomerID:           req.CustomerID,
			VehicleID:            req.VehicleID,
			DateRange:            rng,
			TotalPriceCents:      quote.TotalPriceCents,
			BasePricePerDayCents: quote.BasePricePerDayCents,
			DistancePriceCents:   quote.DistancePriceCents,
			DistanceKm:           distanceKm,
			Currency:             req.Currency,
			PaymentMethod:        req.PaymentMethod,
			SpecialRequests:      req.SpecialRequests,
			Pickup:               req.Pickup,
			Dropoff:              req.Dropoff,
		}, s.now())
		if err != nil {
			return err
		}
		if err := tx.Bookings().Save(ctx, bk); err != nil {
			return err
		}
		return s.guard.Sync(ctx, tx, []uuid.UUID{vehicle.ID}, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("vehicle_id", bk.VehicleID().String()),
	)
	s.notify(ctx, EventBookingCreated, bk, BookingCreatedPayload{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		CustomerID:      bk.CustomerID(),
		VehicleID:       bk.VehicleID(),
		StartDate:       bk.DateRange().Start().Format(bookingDomain.DateLayout),
		EndDate:         bk.DateRange().End().Format(bookingDomain.DateLayout),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		OccurredAt:      s.now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateStatus applies an explicit status transition. Entering a terminal
// status releases the vehicle and driver in the same transaction.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status string) (*BookingDTO, error) {
	target, err := bookingDomain.ParseStatus(status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return s.transition(ctx, bookingID, target, nil)
}

// UpdateTripStatus is UpdateStatus on behalf of a driver, who must hold the booking.
func (s *BookingService) UpdateTripStatus(ctx context.Context, bookingID, driverID uuid.UUID, target bookingDomain.Status) (*BookingDTO, error) {
	return s.transition(ctx, bookingID, target, func(bk *bookingDomain.Booking) error {
		if !bk.HoldsDriver(driverID) {
			return domain.NewForbiddenError("booking is not assigned to this driver")
		}
		return nil
	})
}

func (s *BookingService) transition(
	ctx context.Context,
	bookingID uuid.UUID,
	target bookingDomain.Status,
	authorize func(*bookingDomain.Booking) error,
) (*BookingDTO, error) {
	var (
		bk   *bookingDomain.Booking
		from bookingDomain.Status
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		bk, err = tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(bk); err != nil {
				return err
			}
		}
		from = bk.Status()
		if err := bk.TransitionTo(target, s.now()); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := tx.Bookings().Update(ctx, bk); err != nil {
			return err
		}
		return s.guard.Sync(ctx, tx, []uuid.UUID{bk.VehicleID()}, driverIDs(bk.DriverID()))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	s.notify(ctx, EventStatusChanged, bk, StatusChangedPayload{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		DriverID:      bk.DriverID(),
		From:          string(from),
		To:            string(target),
		OccurredAt:    s.now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmPayment marks a completed booking as paid.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		bk, err = tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := bk.ConfirmPayment(s.now()); err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := tx.Bookings().Update(ctx, bk); err != nil {
			return err
		}
		return s.guard.Sync(ctx, tx, []uuid.UUID{bk.VehicleID()}, driverIDs(bk.DriverID()))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking payment confirmed", zap.String("booking_id", bk.ID().String()))
	s.notify(ctx, EventPaymentConfirmed, bk, PaymentConfirmedPayload{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		CustomerID:      bk.CustomerID(),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		OccurredAt:      s.now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking removes a booking and releases whatever it held.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	var bk *bookingDomain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		bk, err = tx.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := tx.Bookings().Delete(ctx, bk.ID()); err != nil {
			return err
		}
		return s.guard.Sync(ctx, tx, []uuid.UUID{bk.VehicleID()}, driverIDs(bk.DriverID()))
	})
	if err != nil {
		return err
	}
	s.logger.Info("booking deleted", zap.String("booking_id", bookingID.String()))

	s.notify(ctx, EventBookingDeleted, bk, BookingDeletedPayload{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		DriverID:      bk.DriverID(),
		OccurredAt:    s.now().UTC(),
	})
	return nil
}

// GetBooking retrieves a booking by ID or booking number.
func (s *BookingService) GetBooking(ctx context.Context, ref string) (*BookingDTO, error) {
	var (
		bk  *bookingDomain.Booking
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		bk, err = s.store.Bookings().FindByID(ctx, id)
	} else {
		bk, err = s.store.Bookings().FindByNumber(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings retrieves all bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	return s.list(ctx, bookingDomain.Filter{}, page, limit)
}

// ListBookingsByUser retrieves a customer's bookings.
func (s *BookingService) ListBookingsByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	return s.list(ctx, bookingDomain.Filter{CustomerID: &userID}, page, limit)
}

// ListBookingsByDriver retrieves the bookings a driver currently holds or held.
func (s *BookingService) ListBookingsByDriver(ctx context.Context, driverID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	return s.list(ctx, bookingDomain.Filter{DriverID: &driverID}, page, limit)
}

// ListBookingsByStatus retrieves bookings in one status.
func (s *BookingService) ListBookingsByStatus(ctx context.Context, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	st, err := bookingDomain.ParseStatus(status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	return s.list(ctx, bookingDomain.Filter{Status: &st}, page, limit)
}

func (s *BookingService) list(ctx context.Context, filter bookingDomain.Filter, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.store.Bookings().List(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Helpers ---

func (s *BookingService) quote(
	req CreateBookingRequest,
	rng bookingDomain.DateRange,
	distanceKm float64,
	perDayCents, perKmCents int64,
) (bookingDomain.Quote, error) {
	if req.TotalPriceCents != nil {
		q := bookingDomain.Quote{
			BasePricePerDayCents: perDayCents,
			TotalPriceCents:      *req.TotalPriceCents,
		}
		if req.BasePricePerDayCents != nil {
			q.BasePricePerDayCents = *req.BasePricePerDayCents
		}
		if req.DistancePriceCents != nil {
			q.DistancePriceCents = *req.DistancePriceCents
		}
		return q, nil
	}

	q, err := s.pricing.Calculate(bookingDomain.PricingParams{
		Days:             rng.Days(),
		DistanceKm:       distanceKm,
		PricePerDayCents: perDayCents,
		PricePerKmCents:  perKmCents,
	})
	if err != nil {
		return bookingDomain.Quote{}, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}
	return q, nil
}

func (s *BookingService) nextBookingNumber(ctx context.Context, tx Tx) (string, error) {
	for i := 0; i < s.numberAttempts; i++ {
		number, err := s.numbers(s.now())
		if err != nil {
			return "", err
		}
		exists, err := tx.Bookings().ExistsByNumber(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check booking number: %w", err)
		}
		if !exists {
			return number, nil
		}
		s.logger.Warn("booking number collision", zap.String("booking_number", number))
	}
	return "", domain.NewConflictError("could not allocate a unique booking number")
}

func (s *BookingService) notify(ctx context.Context, eventType EventType, bk *bookingDomain.Booking, payload any) {
	s.notifier.Notify(ctx, Event{
		Type:          eventType,
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		CustomerID:    bk.CustomerID(),
		DriverIDs:     driverIDs(bk.DriverID()),
		OccurredAt:    s.now().UTC(),
		Payload:       payload,
	})
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                   bk.ID(),
		BookingNumber:        bk.BookingNumber(),
		CustomerID:           bk.CustomerID(),
		VehicleID:            bk.VehicleID(),
		DriverID:             bk.DriverID(),
		StartDate:            bk.DateRange().Start().Format(bookingDomain.DateLayout),
		EndDate:              bk.DateRange().End().Format(bookingDomain.DateLayout),
		Days:                 bk.DateRange().Days(),
		TotalPriceCents:      bk.TotalPriceCents(),
		BasePricePerDayCents: bk.BasePricePerDayCents(),
		DistancePriceCents:   bk.DistancePriceCents(),
		DistanceKm:           bk.DistanceKm(),
		Currency:             bk.Currency(),
		Status:               string(bk.Status()),
		PaymentStatus:        string(bk.PaymentStatus()),
		PaymentMethod:        bk.PaymentMethod(),
		SpecialRequests:      bk.SpecialRequests(),
		Pickup:               bk.Pickup(),
		Dropoff:              bk.Dropoff(),
		Version:              bk.Version(),
		CreatedAt:            bk.CreatedAt(),
		UpdatedAt:            bk.UpdatedAt(),
	}
}

func driverIDs(id *uuid.UUID) []uuid.UUID {
	if id == nil {
		return nil
	}
	return []uuid.UUID{*id}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// resolveDistance prefers the caller's distance, then the straight-line
// distance between pickup and dropoff when both have coordinates.
func resolveDistance(req CreateBookingRequest) float64 {
	if req.DistanceKm != nil {
		return *req.DistanceKm
	}
	if req.Pickup.HasCoordinates() && req.Dropoff.HasCoordinates() {
		return haversineDistance(
			*req.Pickup.Latitude, *req.Pickup.Longitude,
			*req.Dropoff.Latitude, *req.Dropoff.Longitude,
		)
	}
	return 0
}

// haversineDistance calculates the distance between two coordinates in kilometers.
func haversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
