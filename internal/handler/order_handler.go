package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/application"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/response"
)

// OrderHandler handles customer HTTP requests for orders.
type OrderHandler struct {
	service *application.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes registers all customer order routes on the given router group.
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	orders := r.Group("/api/v1/orders")
	orders.Use(middleware.AuthMiddleware(jwtManager))
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}

// CreateOrder handles POST /api/v1/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req application.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	out, err := h.service.CreateOrder(c.Request.Context(), a, req, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusCreated, out.Data, out.DispatchError)
}

// ListOrders handles GET /api/v1/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListMyOrders(c.Request.Context(), a, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order")
	if !ok {
		return
	}

	result, err := h.service.GetOrder(c.Request.Context(), a, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order")
	if !ok {
		return
	}
	req, ok := bindCancel(c)
	if !ok {
		return
	}

	out, err := h.service.CancelOrder(c.Request.Context(), a, orderID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Committed(c, http.StatusOK, out.Data, out.DispatchError)
}
