package transport

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for transport bookings.
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Booking, int64, error)
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)
	Save(ctx context.Context, booking *Booking) error
	// Update persists changes with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
