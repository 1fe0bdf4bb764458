package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/application"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/response"
)

// TransportHandler handles customer HTTP requests for goods transport bookings.
type TransportHandler struct {
	service *application.TransportService
}

func NewTransportHandler(service *application.TransportService) *TransportHandler {
	return &TransportHandler{service: service}
}

// RegisterRoutes registers all customer transport routes.
func (h *TransportHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/api/v1/transport-bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// CreateBooking handles POST /api/v1/transport-bookings.
func (h *TransportHandler) CreateBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req application.CreateTransportBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	out, err := h.service.CreateTransportBooking(c.Request.Context(), a, req, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusCreated, out.Data, out.DispatchError)
}

func (h *TransportHandler) ListBookings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListMyTransportBookings(c.Request.Context(), a, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *TransportHandler) GetBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetTransportBooking(c.Request.Context(), a, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *TransportHandler) CancelBooking(c *gin.Context) {
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

	out, err := h.service.CancelTransportBooking(c.Request.Context(), a, bookingID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusOK, out.Data, out.DispatchError)
}
