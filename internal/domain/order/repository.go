package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// FindByID retrieves an order with its items.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUserID retrieves orders placed by a user, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Order, int64, error)

	// ListAll retrieves all orders with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Order, int64, error)

	// CountByTrackingStatus returns order counts grouped by tracking status (admin).
	CountByTrackingStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new order, its items and garland schedules atomically.
	Save(ctx context.Context, order *Order) error

	// Update persists status changes with optimistic locking.
	Update(ctx context.Context, order *Order) error

	// FindDueGarlandReminders lists unreminded garland deliveries in [from, until]
	// on orders that are neither cancelled nor delivered.
	FindDueGarlandReminders(ctx context.Context, from, until time.Time) ([]GarlandReminder, error)

	// MarkGarlandReminderSent flags an item's reminder as sent.
	MarkGarlandReminderSent(ctx context.Context, itemID uuid.UUID, at time.Time) error
}
