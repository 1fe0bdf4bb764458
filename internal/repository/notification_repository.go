package repository

import (
	"context"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/notification"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationModel is the GORM model for the notifications table.
type NotificationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Message   string    `gorm:"type:text;not null"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

func (NotificationModel) TableName() string { return "notifications" }

// GormNotificationRepository implements notification.NotificationRepository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	model := NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.NewStorageError("failed to save notification", err)
	}
	return nil
}

func (r *GormNotificationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*notification.Notification, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&NotificationModel{}).Scopes(byUser(userID)).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to count notifications", err)
	}

	var models []NotificationModel
	err := r.db.WithContext(ctx).Scopes(byUser(userID)).Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, 0, domain.NewStorageError("failed to list notifications", err)
	}

	out := make([]*notification.Notification, len(models))
	for i, m := range models {
		out[i] = &notification.Notification{
			ID:        m.ID,
			UserID:    m.UserID,
			Message:   m.Message,
			IsRead:    m.IsRead,
			CreatedAt: m.CreatedAt,
		}
	}
	return out, total, nil
}

// MarkRead flags the notification as read; it must belong to userID.
func (r *GormNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return domain.NewStorageError("failed to mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("notification", id.String())
	}
	return nil
}
