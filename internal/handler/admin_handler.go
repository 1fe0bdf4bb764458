package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/application"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/response"
)

// AdvanceStatusRequest is the body of the admin status endpoint.
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GarlandReminderRequest sets how far ahead reminders are sent. Defaults to 24 hours.
type GarlandReminderRequest struct {
	WindowHours int `json:"window_hours" binding:"omitempty,min=1,max=168"`
}

// AdminHandler handles admin HTTP requests for order and transport management.
type AdminHandler struct {
	orders    *application.OrderService
	transport *application.TransportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(orders *application.OrderService, transport *application.TransportService) *AdminHandler {
	return &AdminHandler{orders: orders, transport: transport}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/orders", h.ListOrders)
		admin.POST("/orders/:id/confirm", h.ConfirmOrder)
		admin.POST("/orders/:id/status", h.AdvanceOrderStatus)
		admin.GET("/stats/orders", h.OrderStats)
		admin.POST("/garland-reminders", h.SendGarlandReminders)
		admin.GET("/transport-bookings", h.ListTransportBookings)
		admin.POST("/transport-bookings/:id/confirm", h.ConfirmTransportBooking)
	}
}

// ListOrders handles GET /api/v1/admin/orders.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.orders.ListAllOrders(c.Request.Context(), a, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ConfirmOrder handles POST /api/v1/admin/orders/:id/confirm.
func (h *AdminHandler) ConfirmOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order")
	if !ok {
		return
	}

	out, err := h.orders.ConfirmOrder(c.Request.Context(), a, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusOK, out.Data, out.DispatchError)
}

// AdvanceOrderStatus handles POST /api/v1/admin/orders/:id/status.
func (h *AdminHandler) AdvanceOrderStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order")
	if !ok {
		return
	}

	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	out, err := h.orders.AdvanceOrderStatus(c.Request.Context(), a, orderID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusOK, out.Data, out.DispatchError)
}

// OrderStats handles GET /api/v1/admin/stats/orders.
func (h *AdminHandler) OrderStats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	stats, err := h.orders.OrderStats(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// SendGarlandReminders handles POST /api/v1/admin/garland-reminders.
func (h *AdminHandler) SendGarlandReminders(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req GarlandReminderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	if req.WindowHours == 0 {
		req.WindowHours = 24
	}

	out, err := h.orders.SendGarlandReminders(c.Request.Context(), a, time.Duration(req.WindowHours)*time.Hour)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusOK, out.Data, out.DispatchError)
}

// ListTransportBookings handles GET /api/v1/admin/transport-bookings.
func (h *AdminHandler) ListTransportBookings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.transport.ListAllTransportBookings(c.Request.Context(), a, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ConfirmTransportBooking handles POST /api/v1/admin/transport-bookings/:id/confirm.
func (h *AdminHandler) ConfirmTransportBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	out, err := h.transport.ConfirmTransportBooking(c.Request.Context(), a, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusOK, out.Data, out.DispatchError)
}
