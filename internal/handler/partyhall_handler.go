package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/application"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/response"
)

// PartyHallHandler handles HTTP requests for hall availability and reservations.
type PartyHallHandler struct {
	service *application.PartyHallService
}

func NewPartyHallHandler(service *application.PartyHallService) *PartyHallHandler {
	return &PartyHallHandler{service: service}
}

// RegisterRoutes registers the party-hall routes. Availability is public.
func (h *PartyHallHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	hall := r.Group("/api/v1/party-hall")
	hall.GET("/availability", h.GetAvailability)

	bookings := hall.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// GetAvailability handles GET /api/v1/party-hall/availability?date=YYYY-MM-DD.
func (h *PartyHallHandler) GetAvailability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, "date query parameter is required")
		return
	}

	result, err := h.service.GetAvailability(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateBooking handles POST /api/v1/party-hall/bookings.
func (h *PartyHallHandler) CreateBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req application.CreatePartyHallBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	out, err := h.service.CreatePartyHallBooking(c.Request.Context(), a, req, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusCreated, out.Data, out.DispatchError)
}

func (h *PartyHallHandler) ListBookings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListMyPartyHallBookings(c.Request.Context(), a, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *PartyHallHandler) GetBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetPartyHallBooking(c.Request.Context(), a, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *PartyHallHandler) CancelBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}
	req, ok := bindCancel(c)
	if !ok {
		return
	}

	out, err := h.service.CancelPartyHallBooking(c.Request.Context(), a, bookingID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusOK, out.Data, out.DispatchError)
}
