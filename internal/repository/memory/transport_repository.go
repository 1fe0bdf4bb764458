package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/transport"
	"github.com/google/uuid"
)

// TransportRepository is an in-memory transport.BookingRepository.
type TransportRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*transport.Booking
}

func NewTransportRepository() *TransportRepository {
	return &TransportRepository{bookings: make(map[uuid.UUID]*transport.Booking)}
}

func (r *TransportRepository) FindByID(_ context.Context, id uuid.UUID) (*transport.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("transport booking", id.String())
	}
	return cloneTransport(b), nil
}

func (r *TransportRepository) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*transport.Booking, int64, error) {
	return r.list(func(b *transport.Booking) bool { return b.UserID() == userID }, page, limit)
}

func (r *TransportRepository) ListAll(_ context.Context, page, limit int) ([]*transport.Booking, int64, error) {
	return r.list(func(*transport.Booking) bool { return true }, page, limit)
}

func (r *TransportRepository) list(match func(*transport.Booking) bool, page, limit int) ([]*transport.Booking, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*transport.Booking
	for _, b := range r.bookings {
		if match(b) {
			out = append(out, cloneTransport(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *TransportRepository) Save(_ context.Context, b *transport.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[b.ID()]; exists {
		return domain.NewConflictError("transport booking already exists")
	}
	r.bookings[b.ID()] = cloneTransport(b)
	return nil
}

func (r *TransportRepository) Update(_ context.Context, b *transport.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID()]
	if !ok || stored.Version() != b.Version()-1 {
		return domain.NewConflictError("transport booking was modified by another request")
	}
	r.bookings[b.ID()] = cloneTransport(b)
	return nil
}

func cloneTransport(b *transport.Booking) *transport.Booking {
	return transport.ReconstructBooking(
		b.ID(), b.BookingNumber(), b.UserID(), b.Contact(), b.Route(),
		b.DistanceKm(), b.RatePerKm(), b.ChargeAmount(), b.Status(),
		b.Notes(), b.CancelReason(), b.ConfirmedAt(), b.CancelledAt(),
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}
