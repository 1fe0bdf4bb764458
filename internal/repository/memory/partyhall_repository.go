package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/partyhall"
	"github.com/google/uuid"
)

// PartyHallRepository is an in-memory partyhall.BookingRepository. The mutex
// plays the role of the advisory lock in SaveIfAvailable.
type PartyHallRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*partyhall.Booking
}

func NewPartyHallRepository() *PartyHallRepository {
	return &PartyHallRepository{bookings: make(map[uuid.UUID]*partyhall.Booking)}
}

func (r *PartyHallRepository) FindByID(_ context.Context, id uuid.UUID) (*partyhall.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("party hall booking", id.String())
	}
	return clonePartyHall(b), nil
}

func (r *PartyHallRepository) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*partyhall.Booking, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*partyhall.Booking
	for _, b := range r.bookings {
		if b.UserID() == userID {
			out = append(out, clonePartyHall(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *PartyHallRepository) ListActiveInWindow(_ context.Context, hallID string, window partyhall.Slot) ([]*partyhall.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*partyhall.Booking
	for _, b := range r.bookings {
		if b.HallID() == hallID && b.IsActive() && b.Slot().Overlaps(window) {
			out = append(out, clonePartyHall(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot().Start.Before(out[j].Slot().Start) })
	return out, nil
}

func (r *PartyHallRepository) HasOverlap(_ context.Context, hallID string, slot partyhall.Slot) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overlaps(hallID, slot), nil
}

func (r *PartyHallRepository) overlaps(hallID string, slot partyhall.Slot) bool {
	for _, b := range r.bookings {
		if b.HallID() == hallID && b.IsActive() && b.Slot().Overlaps(slot) {
			return true
		}
	}
	return false
}

func (r *PartyHallRepository) SaveIfAvailable(_ context.Context, b *partyhall.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlaps(b.HallID(), b.Slot()) {
		return domain.NewSlotConflictError("the hall is already booked for an overlapping time")
	}
	r.bookings[b.ID()] = clonePartyHall(b)
	return nil
}

func (r *PartyHallRepository) Update(_ context.Context, b *partyhall.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return domain.NewConflictError("party hall booking was modified by another request")
	}
	r.bookings[b.ID()] = clonePartyHall(b)
	return nil
}

func clonePartyHall(b *partyhall.Booking) *partyhall.Booking {
	return partyhall.ReconstructBooking(
		b.ID(), b.BookingNumber(), b.HallID(), b.UserID(), b.Contact(),
		b.EventDate(), b.Slot(), b.PersonCount(), b.Counts(), b.AddOns(),
		b.BaseCharge(), b.AddOnCharge(), b.TotalCharge(), b.Status(),
		b.Notes(), b.CancelReason(), b.CancelledAt(),
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}
