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

// BookingStatisticsDTO holds booking statistics for the admin dashboard.
type BookingStatisticsDTO struct {
	TotalBookings          int64  `json:"total_bookings"`
	PendingBookings        int64  `json:"pending_bookings"`
	ConfirmedBookings      int64  `json:"confirmed_bookings"`
	DriverAssignedBookings int64  `json:"driver_assigned_bookings"`
	OngoingBookings        int64  `json:"ongoing_bookings"`
	CompletedBookings      int64  `json:"completed_bookings"`
	CancelledBookings      int64  `json:"cancelled_bookings"`
	TotalRevenueCents      int64  `json:"total_revenue_cents"`
	Currency               string `json:"currency"`
}

// UserStatsDTO summarizes a customer's bookings.
type UserStatsDTO struct {
	UserID               uuid.UUID `json:"user_id"`
	TotalBookings        int64     `json:"total_bookings"`
	ActiveBookings       int64     `json:"active_bookings"`
	TotalSpentCents      int64     `json:"total_spent_cents"`
	BookingsChange       string    `json:"bookings_change"`
	ActiveBookingsChange string    `json:"active_bookings_change"`
	SpentChange          string    `json:"spent_change"`
}

// DriverStatsDTO summarizes a driver's trips and earnings.
type DriverStatsDTO struct {
	DriverID           uuid.UUID `json:"driver_id"`
	TotalTrips         int64     `json:"total_trips"`
	CompletedTrips     int64     `json:"completed_trips"`
	ActiveTrips        int64     `json:"active_trips"`
	TotalEarningsCents int64     `json:"total_earnings_cents"`
	CommissionRate     float64   `json:"commission_rate"`
	TripsChange        string    `json:"trips_change"`
	ActiveTripsChange  string    `json:"active_trips_change"`
	EarningsChange     string    `json:"earnings_change"`
}

// StatisticsService computes read-only dashboard aggregates.
type StatisticsService struct {
	store          Store
	cache          StatsCache
	commissionRate float64
	now            Clock
	logger         *zap.Logger
}

// NewStatisticsService creates a new StatisticsService. cache may be nil.
func NewStatisticsService(store Store, cache StatsCache, commissionRate float64, logger *zap.Logger) *StatisticsService {
	return &StatisticsService{
		store:          store,
		cache:          cache,
		commissionRate: commissionRate,
		now:            time.Now,
		logger:         logger,
	}
}

// SetClock overrides the time source used for monthly buckets.
func (s *StatisticsService) SetClock(now Clock) { s.now = now }

// Notify implements NotificationSink. It drops the cached figures a committed
// change makes stale; a failed delete leaves them until the TTL expires.
func (s *StatisticsService) Notify(ctx context.Context, event Event) {
	if s.cache == nil {
		return
	}
	keys := []string{bookingStatsKey}
	if event.CustomerID != uuid.Nil {
		keys = append(keys, userStatsKey(event.CustomerID))
	}
	for _, id := range event.DriverIDs {
		keys = append(keys, driverStatsKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("stats cache invalidation failed",
			zap.String("event", string(event.Type)),
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

// GetBookingStatistics counts bookings per status and sums completed revenue.
func (s *StatisticsService) GetBookingStatistics(ctx context.Context) (*BookingStatisticsDTO, error) {
	const key = bookingStatsKey
	var cached BookingStatisticsDTO
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	counts, err := s.store.Bookings().CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	completed := bookingDomain.StatusCompleted
	revenue, err := s.store.Bookings().SumTotalPrice(ctx, bookingDomain.Filter{Status: &completed})
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	stats := &BookingStatisticsDTO{
		PendingBookings:        counts[bookingDomain.StatusPending],
		ConfirmedBookings:      counts[bookingDomain.StatusConfirmed],
		DriverAssignedBookings: counts[bookingDomain.StatusDriverAssigned],
		OngoingBookings:        counts[bookingDomain.StatusOngoing],
		CompletedBookings:      counts[bookingDomain.StatusCompleted],
		CancelledBookings:      counts[bookingDomain.StatusCancelled],
		TotalRevenueCents:      revenue,
		Currency:               domain.CurrencyUSD,
	}
	for _, c := range counts {
		stats.TotalBookings += c
	}

	s.toCache(ctx, key, stats)
	return stats, nil
}

// GetUserStats summarizes a customer's bookings with month-over-month change.
func (s *StatisticsService) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStatsDTO, error) {
	if _, err := s.store.Users().Resolve(ctx, userID); err != nil {
		return nil, err
	}
	key := userStatsKey(userID)
	var cached UserStatsDTO
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	bookings, err := s.store.Bookings().FindAll(ctx, bookingDomain.Filter{CustomerID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user bookings: %w", err)
	}

	isActive := func(b *bookingDomain.Booking) bool {
		return b.Status() == bookingDomain.StatusPending || b.Status() == bookingDomain.StatusConfirmed
	}
	spent := func(b *bookingDomain.Booking) int64 {
		if b.IsPaid() {
			return b.TotalPriceCents()
		}
		return 0
	}

	stats := &UserStatsDTO{UserID: userID, TotalBookings: int64(len(bookings))}
	last, prev := s.monthBuckets(bookings)
	var lastActive, prevActive, lastSpent, prevSpent int64
	for _, b := range bookings {
		if isActive(b) {
			stats.ActiveBookings++
		}
		stats.TotalSpentCents += spent(b)
	}
	for _, b := range last {
		if isActive(b) {
			lastActive++
		}
		lastSpent += spent(b)
	}
	for _, b := range prev {
		if isActive(b) {
			prevActive++
		}
		prevSpent += spent(b)
	}
	stats.BookingsChange = PercentageChange(int64(len(last)), int64(len(prev)))
	stats.ActiveBookingsChange = PercentageChange(lastActive, prevActive)
	stats.SpentChange = PercentageChange(lastSpent, prevSpent)

	s.toCache(ctx, key, stats)
	return stats, nil
}

// GetDriverStats summarizes a driver's trips and commission earnings.
func (s *StatisticsService) GetDriverStats(ctx context.Context, driverID uuid.UUID) (*DriverStatsDTO, error) {
	driver, err := s.store.Users().Resolve(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsDriver() {
		return nil, domain.NewInvalidRoleError(driverID.String(), string(driver.Role))
	}
	key := driverStatsKey(driverID)
	var cached DriverStatsDTO
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	trips, err := s.store.Bookings().FindAll(ctx, bookingDomain.Filter{DriverID: &driverID})
	if err != nil {
		return nil, fmt.Errorf("failed to load driver trips: %w", err)
	}

	isActive := func(b *bookingDomain.Booking) bool {
		switch b.Status() {
		case bookingDomain.StatusConfirmed, bookingDomain.StatusOngoing, bookingDomain.StatusDriverAssigned:
			return true
		}
		return false
	}
	earned := func(b *bookingDomain.Booking) int64 {
		if b.Status() == bookingDomain.StatusCompleted && b.IsPaid() {
			return b.TotalPriceCents()
		}
		return 0
	}

	stats := &DriverStatsDTO{
		DriverID:       driverID,
		TotalTrips:     int64(len(trips)),
		CommissionRate: s.commissionRate,
	}
	var grossEarned int64
	for _, b := range trips {
		if b.Status() == bookingDomain.StatusCompleted {
			stats.CompletedTrips++
		}
		if isActive(b) {
			stats.ActiveTrips++
		}
		grossEarned += earned(b)
	}
	stats.TotalEarningsCents = s.commission(grossEarned)

	last, prev := s.monthBuckets(trips)
	var lastActive, prevActive, lastEarned, prevEarned int64
	for _, b := range last {
		if isActive(b) {
			lastActive++
		}
		lastEarned += earned(b)
	}
	for _, b := range prev {
		if isActive(b) {
			prevActive++
		}
		prevEarned += earned(b)
	}
	stats.TripsChange = PercentageChange(int64(len(last)), int64(len(prev)))
	stats.ActiveTripsChange = PercentageChange(lastActive, prevActive)
	stats.EarningsChange = PercentageChange(s.commission(lastEarned), s.commission(prevEarned))

	s.toCache(ctx, key, stats)
	return stats, nil
}

// PercentageChange renders the change from previous to current as "+12%",
// "-5%" or "0%". Growth from zero is reported as "+100%".
func PercentageChange(current, previous int64) string {
	if previous == 0 {
		if current > 0 {
			return "+100%"
		}
		return "0%"
	}
	change := float64(current-previous) / float64(previous) * 100
	// Half-up rounding, so -12.5 becomes -12.
	rounded := int64(math.Floor(change + 0.5))
	switch {
	case rounded > 0:
		return fmt.Sprintf("+%d%%", rounded)
	case rounded < 0:
		return fmt.Sprintf("%d%%", rounded)
	}
	return "0%"
}

// monthBuckets splits bookings by createdAt into the last calendar month and
// the month before it, in UTC.
func (s *StatisticsService) monthBuckets(bookings []*bookingDomain.Booking) (last, prev []*bookingDomain.Booking) {
	now := s.now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)
	prevMonth := thisMonth.AddDate(0, -2, 0)

	for _, b := range bookings {
		created := b.CreatedAt().UTC()
		switch {
		case !created.Before(lastMonth) && created.Before(thisMonth):
			last = append(last, b)
		case !created.Before(prevMonth) && created.Before(lastMonth):
			prev = append(prev, b)
		}
	}
	return last, prev
}

func (s *StatisticsService) commission(cents int64) int64 {
	return int64(math.Round(float64(cents) * s.commissionRate))
}

const bookingStatsKey = "stats:bookings"

func userStatsKey(id uuid.UUID) string { return "stats:user:" + id.String() }

func driverStatsKey(id uuid.UUID) string { return "stats:driver:" + id.String() }

func (s *StatisticsService) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *StatisticsService) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}
