package notification

import (
	"context"

	"github.com/google/uuid"
)

// NotificationRepository defines the persistence contract for notifications.
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	// FindByUserID returns a user's notifications, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Notification, int64, error)
	// MarkRead marks one of the user's notifications as read.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}
