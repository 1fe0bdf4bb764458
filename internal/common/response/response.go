package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
)

// ErrorBody is the JSON shape of a failed or degraded response.
type ErrorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Warning *ErrorBody `json:"warning,omitempty"`
	Meta    *PageMeta  `json:"meta,omitempty"`
}

// PageMeta carries pagination details.
type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Committed writes a successful state change. A non-nil sideEffectErr is reported
// as a warning: the change is durable but a follow-up notification was not dispatched.
func Committed(c *gin.Context, status int, data any, sideEffectErr error) {
	env := Envelope{Success: true, Data: data}
	if sideEffectErr != nil {
		env.Warning = &ErrorBody{
			Kind:    domain.KindNotification,
			Message: sideEffectErr.Error(),
		}
	}
	c.JSON(status, env)
}

func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &PageMeta{Total: total, Page: page, Limit: limit},
	})
}

func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, domain.KindValidation, message)
}

func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, domain.KindUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, domain.KindForbidden, message)
}

// Error maps a (possibly kinded) error to its HTTP status and writes it.
func Error(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		abort(c, http.StatusInternalServerError, domain.KindInternal, "internal server error")
		return
	}
	message := de.Message
	if de.Kind == domain.KindStorage {
		message = "the operation did not complete"
	}
	abort(c, StatusFor(de.Kind), de.Kind, message)
}

// StatusFor returns the HTTP status code for an error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindEmptyOrder, domain.KindInvalidLeadTime,
		domain.KindInvalidDistance, domain.KindInvalidGeometry:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidTransition, domain.KindAlreadyTerminal, domain.KindAlreadyConfirmed,
		domain.KindSlotConflict, domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotification:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, kind domain.ErrorKind, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Kind: kind, Message: message},
	})
}
