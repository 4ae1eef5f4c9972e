package handler

import (
	"github.com/DriveNow-Rental/service-booking/internal/application"
	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DriverIDHeader carries the authenticated driver's ID, set by the gateway.
const DriverIDHeader = "X-Driver-ID"

// DriverTripHandler lets a driver move their own trips along.
type DriverTripHandler struct {
	service *application.BookingService
}

// NewDriverTripHandler creates a new DriverTripHandler.
func NewDriverTripHandler(service *application.BookingService) *DriverTripHandler {
	return &DriverTripHandler{service: service}
}

// RegisterRoutes registers the driver trip routes.
func (h *DriverTripHandler) RegisterRoutes(r *gin.RouterGroup) {
	trips := r.Group("/api/v1/driver/trips")
	{
		trips.PUT("/:id/start", h.transition(bookingDomain.StatusOngoing))
		trips.PUT("/:id/complete", h.transition(bookingDomain.StatusCompleted))
		trips.PUT("/:id/cancel", h.transition(bookingDomain.StatusCancelled))
	}
}

func (h *DriverTripHandler) transition(target bookingDomain.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseID(c, "id", "invalid booking ID")
		if !ok {
			return
		}
		driverID, err := uuid.Parse(c.GetHeader(DriverIDHeader))
		if err != nil {
			response.BadRequest(c, "missing or invalid "+DriverIDHeader+" header")
			return
		}

		result, err := h.service.UpdateTripStatus(c.Request.Context(), bookingID, driverID, target)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.Success(c, result)
	}
}
