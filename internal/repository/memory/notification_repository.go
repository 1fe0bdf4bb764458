package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/notification"
	"github.com/google/uuid"
)

// NotificationRepository is an in-memory notification.NotificationRepository.
type NotificationRepository struct {
	mu    sync.RWMutex
	items []notification.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Save(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *n)
	return nil
}

func (r *NotificationRepository) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*notification.Notification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*notification.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID == userID {
			n := r.items[i]
			out = append(out, &n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].IsRead = true
			return nil
		}
	}
	return domain.NewNotFoundError("notification", id.String())
}
