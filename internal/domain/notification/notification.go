package notification

import (
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/google/uuid"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// New creates an unread notification.
func New(userID uuid.UUID, message string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("notification recipient is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.NewValidationError("notification message is required")
	}
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}, nil
}
