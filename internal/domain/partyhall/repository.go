package partyhall

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for hall reservations.
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListActiveInWindow returns non-cancelled bookings of a hall whose slot
	// intersects window, ordered by start.
	ListActiveInWindow(ctx context.Context, hallID string, window Slot) ([]*Booking, error)

	// HasOverlap reports whether any non-cancelled booking of the hall intersects slot.
	HasOverlap(ctx context.Context, hallID string, slot Slot) (bool, error)

	// SaveIfAvailable inserts the booking unless its slot overlaps an active one,
	// in which case it returns a SlotConflict error. Check and insert are atomic.
	SaveIfAvailable(ctx context.Context, booking *Booking) error

	// Update persists changes with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
