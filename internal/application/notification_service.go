package application

import (
	"context"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/notification"
	"github.com/google/uuid"
)

// NotificationDTO is the response representation of a notification.
type NotificationDTO struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationService exposes a user's in-app notifications.
type NotificationService struct {
	repo notification.NotificationRepository
}

func NewNotificationService(repo notification.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// ListNotifications returns the actor's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[NotificationDTO], error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.repo.FindByUserID(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]NotificationDTO, len(items))
	for i, n := range items {
		dtos[i] = NotificationDTO{ID: n.ID, Message: n.Message, IsRead: n.IsRead, CreatedAt: n.CreatedAt}
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, actor.UserID)
}
