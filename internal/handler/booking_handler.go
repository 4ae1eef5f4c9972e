package handler

import (
	"strconv"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	"github.com/DriveNow-Rental/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service    *application.BookingService
	assignment *application.AssignmentService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, assignment *application.AssignmentService) *BookingHandler {
	return &BookingHandler{service: service, assignment: assignment}
}

// UpdateStatusRequest is the body of PUT /bookings/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/api/v1/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/user/:userId", h.ListByUser)
		bookings.GET("/driver/:driverId", h.ListByDriver)
		bookings.GET("/status/:status", h.ListByStatus)
		bookings.GET("/:ref", h.GetBooking)
		bookings.PUT("/:ref/status", h.UpdateStatus)
		bookings.PUT("/:ref/driver", h.AssignDriver)
		bookings.PUT("/:ref/confirm-payment", h.ConfirmPayment)
		bookings.DELETE("/:ref", h.DeleteBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// ListByUser handles GET /api/v1/bookings/user/:userId.
func (h *BookingHandler) ListByUser(c *gin.Context) {
	userID, ok := parseID(c, "userId", "invalid user ID")
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListBookingsByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// ListByDriver handles GET /api/v1/bookings/driver/:driverId.
func (h *BookingHandler) ListByDriver(c *gin.Context) {
	driverID, ok := parseID(c, "driverId", "invalid driver ID")
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListBookingsByDriver(c.Request.Context(), driverID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// ListByStatus handles GET /api/v1/bookings/status/:status.
func (h *BookingHandler) ListByStatus(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListBookingsByStatus(c.Request.Context(), c.Param("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// GetBooking handles GET /api/v1/bookings/:ref, where ref is an ID or a booking number.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	result, err := h.service.GetBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateStatus handles PUT /api/v1/bookings/:id/status.
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, ok := parseID(c, "ref", "invalid booking ID")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), bookingID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AssignDriver handles PUT /api/v1/bookings/:id/driver. A null driver_id releases the driver.
func (h *BookingHandler) AssignDriver(c *gin.Context) {
	bookingID, ok := parseID(c, "ref", "invalid booking ID")
	if !ok {
		return
	}

	var req application.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.assignment.AssignDriver(c.Request.Context(), bookingID, req.DriverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmPayment handles PUT /api/v1/bookings/:id/confirm-payment.
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	bookingID, ok := parseID(c, "ref", "invalid booking ID")
	if !ok {
		return
	}

	result, err := h.service.ConfirmPayment(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBooking handles DELETE /api/v1/bookings/:id.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "ref", "invalid booking ID")
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// parseID reads a UUID path parameter, writing a 400 when it is malformed.
func parseID(c *gin.Context, param, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
