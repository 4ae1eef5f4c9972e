package handler

import (
	"github.com/DriveNow-Rental/service-booking/internal/application"
	"github.com/DriveNow-Rental/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
)

// StatsHandler serves dashboard statistics.
type StatsHandler struct {
	service *application.StatisticsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(service *application.StatisticsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// RegisterRoutes registers admin and per-user statistics routes.
func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/api/v1/admin/stats/bookings", h.BookingStats)

	stats := r.Group("/api/v1/stats")
	{
		stats.GET("/users/:id", h.UserStats)
		stats.GET("/drivers/:id", h.DriverStats)
	}
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *StatsHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStatistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// UserStats handles GET /api/v1/stats/users/:id.
func (h *StatsHandler) UserStats(c *gin.Context) {
	userID, ok := parseID(c, "id", "invalid user ID")
	if !ok {
		return
	}

	stats, err := h.service.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// DriverStats handles GET /api/v1/stats/drivers/:id.
func (h *StatsHandler) DriverStats(c *gin.Context) {
	driverID, ok := parseID(c, "id", "invalid driver ID")
	if !ok {
		return
	}

	stats, err := h.service.GetDriverStats(c.Request.Context(), driverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
