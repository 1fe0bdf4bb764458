package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/order"
	"github.com/google/uuid"
)

// OrderRepository is an in-memory order.OrderRepository.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*order.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *OrderRepository) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id.String())
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*order.Order, int64, error) {
	return r.list(func(o *order.Order) bool { return o.UserID() == userID }, page, limit)
}

func (r *OrderRepository) ListAll(_ context.Context, page, limit int) ([]*order.Order, int64, error) {
	return r.list(func(*order.Order) bool { return true }, page, limit)
}

func (r *OrderRepository) list(match func(*order.Order) bool, page, limit int) ([]*order.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*order.Order
	for _, o := range r.orders {
		if match(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *OrderRepository) CountByTrackingStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, o := range r.orders {
		counts[string(o.TrackingStatus())]++
	}
	return counts, nil
}

func (r *OrderRepository) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID()]; exists {
		return domain.NewConflictError("order already exists")
	}
	r.orders[o.ID()] = cloneOrder(o)
	return nil
}

// Update applies the change only if the stored version is the one o was loaded at.
func (r *OrderRepository) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID()]
	if !ok || stored.Version() != o.Version()-1 {
		return domain.NewConflictError("order was modified by another request")
	}
	r.orders[o.ID()] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) FindDueGarlandReminders(_ context.Context, from, until time.Time) ([]order.GarlandReminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []order.GarlandReminder
	for _, o := range r.orders {
		if o.TrackingStatus() == order.TrackingCancelled || o.TrackingStatus() == order.TrackingDelivered {
			continue
		}
		for _, it := range o.Items() {
			g := it.Garland
			if g == nil || g.ReminderSent || g.DeliveryAt.Before(from) || g.DeliveryAt.After(until) {
				continue
			}
			out = append(out, order.GarlandReminder{
				OrderID:       o.ID(),
				OrderNumber:   o.OrderNumber(),
				ItemID:        it.ID,
				UserID:        o.UserID(),
				CustomerEmail: o.Customer().Email,
				CustomerName:  o.Customer().Name,
				ProductName:   it.ProductName,
				DeliveryAt:    g.DeliveryAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeliveryAt.Before(out[j].DeliveryAt) })
	return out, nil
}

func (r *OrderRepository) MarkGarlandReminderSent(_ context.Context, itemID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, o := range r.orders {
		items := o.Items()
		for i := range items {
			if items[i].ID != itemID || items[i].Garland == nil {
				continue
			}
			sentAt := at
			items[i].Garland = &order.GarlandSchedule{
				DeliveryAt:     items[i].Garland.DeliveryAt,
				ReminderSent:   true,
				LastReminderAt: &sentAt,
			}
			r.orders[id] = withItems(o, items)
			return nil
		}
	}
	return domain.NewNotFoundError("garland item", itemID.String())
}

func cloneOrder(o *order.Order) *order.Order {
	items := o.Items()
	for i := range items {
		if g := items[i].Garland; g != nil {
			copied := *g
			items[i].Garland = &copied
		}
	}
	return withItems(o, items)
}

func withItems(o *order.Order, items []order.Item) *order.Order {
	return order.ReconstructOrder(
		o.ID(), o.OrderNumber(), o.UserID(), o.Customer(), o.DeliveryAddress(),
		o.Status(), o.TrackingStatus(), items,
		o.Subtotal(), o.DeliveryFee(), o.TotalAmount(),
		o.ConfirmedAt(), o.PickedAt(), o.OutForDeliveryAt(), o.DeliveredAt(), o.CancelledAt(),
		o.CancelReason(), o.CancelledBy(), o.Notes(),
		o.Version(), o.CreatedAt(), o.UpdatedAt(),
	)
}
