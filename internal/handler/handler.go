package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/application"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/middleware"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/response"
)

// IdempotencyKeyHeader lets clients retry a create request without duplicating it.
const IdempotencyKeyHeader = "Idempotency-Key"

// CancelRequest is the body of the cancel endpoints.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// actor returns the authenticated caller, writing a 401 when there is none.
func actor(c *gin.Context) (application.Actor, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return application.Actor{}, false
	}
	return application.ActorFromClaims(claims), true
}

// pathID parses the :id path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+entity+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// bindCancel reads an optional cancel body.
func bindCancel(c *gin.Context) (CancelRequest, bool) {
	var req CancelRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return req, false
	}
	return req, true
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
