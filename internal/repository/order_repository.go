package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderModel is the GORM model for the orders table.
type OrderModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderNumber      string          `gorm:"uniqueIndex;not null"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName     string          `gorm:"type:varchar(255)"`
	CustomerEmail    string          `gorm:"type:varchar(255)"`
	CustomerPhone    string          `gorm:"type:varchar(50)"`
	DeliveryAddress  string          `gorm:"type:text;not null"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	TrackingStatus   string          `gorm:"type:varchar(30);not null;index"`
	Subtotal         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryFee      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ConfirmedAt      *time.Time
	PickedAt         *time.Time
	OutForDeliveryAt *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string           `gorm:"type:text"`
	CancelledBy      string           `gorm:"type:varchar(20)"`
	Notes            string           `gorm:"type:text"`
	Version          int64            `gorm:"not null;default:1"`
	CreatedAt        time.Time        `gorm:"not null"`
	UpdatedAt        time.Time        `gorm:"not null"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName overrides the default table name.
func (OrderModel) TableName() string { return "orders" }

// OrderItemModel is the GORM model for the order_items table.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Category    string          `gorm:"type:varchar(100)"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Weight      decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ImageURL    string          `gorm:"type:text"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// GarlandScheduleModel holds the requested delivery time of a garland line.
type GarlandScheduleModel struct {
	ItemID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	DeliveryAt     time.Time `gorm:"not null;index"`
	ReminderSent   bool      `gorm:"not null;default:false"`
	LastReminderAt *time.Time
}

func (GarlandScheduleModel) TableName() string { return "garland_schedules" }

// GormOrderRepository implements order.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM-backed order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID retrieves an order with its items.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("order", id.String())
		}
		return nil, domain.NewStorageError("failed to find order", err)
	}

	schedules, err := r.loadSchedules(ctx, []uuid.UUID{model.ID})
	if err != nil {
		return nil, err
	}
	return toDomainOrder(&model, schedules), nil
}

// FindByUserID retrieves orders placed by a user with pagination.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*order.Order, int64, error) {
	return r.list(ctx, byUser(userID), page, limit)
}

// ListAll retrieves all orders with pagination (admin use).
func (r *GormOrderRepository) ListAll(ctx context.Context, page, limit int) ([]*order.Order, int64, error) {
	return r.list(ctx, allRows, page, limit)
}

func (r *GormOrderRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, limit int) ([]*order.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to count orders", err)
	}

	var models []OrderModel
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, domain.NewStorageError("failed to list orders", err)
	}

	ids := make([]uuid.UUID, len(models))
	for i := range models {
		ids[i] = models[i].ID
	}
	schedules, err := r.loadSchedules(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toDomainOrder(&models[i], schedules)
	}
	return orders, total, nil
}

func (r *GormOrderRepository) loadSchedules(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]GarlandScheduleModel, error) {
	out := make(map[uuid.UUID]GarlandScheduleModel)
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []GarlandScheduleModel
	if err := r.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Find(&rows).Error; err != nil {
		return nil, domain.NewStorageError("failed to load garland schedules", err)
	}
	for _, row := range rows {
		out[row.ItemID] = row
	}
	return out, nil
}

// CountByTrackingStatus returns order counts grouped by tracking status.
func (r *GormOrderRepository) CountByTrackingStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		TrackingStatus string
		Count          int64
	}
	var results []statusCount
	err := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Select("tracking_status, count(*) as count").
		Group("tracking_status").
		Scan(&results).Error
	if err != nil {
		return nil, domain.NewStorageError("failed to count orders by status", err)
	}

	counts := make(map[string]int64, len(results))
	for _, sc := range results {
		counts[sc.TrackingStatus] = sc.Count
	}
	return counts, nil
}

// Save persists the order, its items and garland schedules in one transaction.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model, items, schedules := toOrderModel(o)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(&model).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if len(schedules) > 0 {
			if err := tx.Create(&schedules).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewStorageError("failed to save order", err)
	}
	return nil
}

// Update persists status changes with optimistic locking. The aggregate's version
// has already been incremented, so the stored row must still carry version-1.
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	expectedVersion := o.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND version = ?", o.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":              string(o.Status()),
			"tracking_status":     string(o.TrackingStatus()),
			"confirmed_at":        o.ConfirmedAt(),
			"picked_at":           o.PickedAt(),
			"out_for_delivery_at": o.OutForDeliveryAt(),
			"delivered_at":        o.DeliveredAt(),
			"cancelled_at":        o.CancelledAt(),
			"cancel_reason":       o.CancelReason(),
			"cancelled_by":        o.CancelledBy(),
			"version":             o.Version(),
			"updated_at":          o.UpdatedAt(),
		})

	if result.Error != nil {
		return domain.NewStorageError("failed to update order", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("order was modified by another request")
	}
	return nil
}

// FindDueGarlandReminders lists unreminded garland deliveries due in [from, until].
func (r *GormOrderRepository) FindDueGarlandReminders(ctx context.Context, from, until time.Time) ([]order.GarlandReminder, error) {
	type reminderRow struct {
		OrderID       uuid.UUID
		OrderNumber   string
		ItemID        uuid.UUID
		UserID        uuid.UUID
		CustomerEmail string
		CustomerName  string
		ProductName   string
		DeliveryAt    time.Time
	}
	var rows []reminderRow
	err := r.db.WithContext(ctx).
		Table("garland_schedules AS g").
		Select("g.order_id, o.order_number, g.item_id, o.user_id, o.customer_email, o.customer_name, i.product_name, g.delivery_at").
		Joins("JOIN orders o ON o.id = g.order_id").
		Joins("JOIN order_items i ON i.id = g.item_id").
		Where("g.reminder_sent = ? AND g.delivery_at BETWEEN ? AND ?", false, from, until).
		Where("o.tracking_status NOT IN ?", []string{string(order.TrackingCancelled), string(order.TrackingDelivered)}).
		Order("g.delivery_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, domain.NewStorageError("failed to find due garland reminders", err)
	}

	out := make([]order.GarlandReminder, len(rows))
	for i, row := range rows {
		out[i] = order.GarlandReminder{
			OrderID:       row.OrderID,
			OrderNumber:   row.OrderNumber,
			ItemID:        row.ItemID,
			UserID:        row.UserID,
			CustomerEmail: row.CustomerEmail,
			CustomerName:  row.CustomerName,
			ProductName:   row.ProductName,
			DeliveryAt:    row.DeliveryAt,
		}
	}
	return out, nil
}

// MarkGarlandReminderSent flags an item's reminder as sent.
func (r *GormOrderRepository) MarkGarlandReminderSent(ctx context.Context, itemID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&GarlandScheduleModel{}).
		Where("item_id = ?", itemID).
		Updates(map[string]interface{}{
			"reminder_sent":    true,
			"last_reminder_at": at,
		})
	if result.Error != nil {
		return domain.NewStorageError("failed to mark garland reminder", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("garland schedule", itemID.String())
	}
	return nil
}

// --- Mapping functions ---

func toOrderModel(o *order.Order) (OrderModel, []OrderItemModel, []GarlandScheduleModel) {
	c := o.Customer()
	model := OrderModel{
		ID:               o.ID(),
		OrderNumber:      o.OrderNumber(),
		UserID:           o.UserID(),
		CustomerName:     c.Name,
		CustomerEmail:    c.Email,
		CustomerPhone:    c.Phone,
		DeliveryAddress:  o.DeliveryAddress(),
		Status:           string(o.Status()),
		TrackingStatus:   string(o.TrackingStatus()),
		Subtotal:         o.Subtotal(),
		DeliveryFee:      o.DeliveryFee(),
		TotalAmount:      o.TotalAmount(),
		ConfirmedAt:      o.ConfirmedAt(),
		PickedAt:         o.PickedAt(),
		OutForDeliveryAt: o.OutForDeliveryAt(),
		DeliveredAt:      o.DeliveredAt(),
		CancelledAt:      o.CancelledAt(),
		CancelReason:     o.CancelReason(),
		CancelledBy:      o.CancelledBy(),
		Notes:            o.Notes(),
		Version:          o.Version(),
		CreatedAt:        o.CreatedAt(),
		UpdatedAt:        o.UpdatedAt(),
	}

	var items []OrderItemModel
	var schedules []GarlandScheduleModel
	for i, it := range o.Items() {
		items = append(items, OrderItemModel{
			ID:          it.ID,
			OrderID:     o.ID(),
			Position:    i,
			ProductName: it.ProductName,
			Category:    it.Category,
			UnitPrice:   it.UnitPrice,
			Weight:      it.Weight,
			TotalPrice:  it.TotalPrice,
			ImageURL:    it.ImageURL,
		})
		if it.Garland != nil {
			schedules = append(schedules, GarlandScheduleModel{
				ItemID:         it.ID,
				OrderID:        o.ID(),
				DeliveryAt:     it.Garland.DeliveryAt,
				ReminderSent:   it.Garland.ReminderSent,
				LastReminderAt: it.Garland.LastReminderAt,
			})
		}
	}
	return model, items, schedules
}

func toDomainOrder(m *OrderModel, schedules map[uuid.UUID]GarlandScheduleModel) *order.Order {
	items := make([]order.Item, len(m.Items))
	for i, im := range m.Items {
		items[i] = order.Item{
			ID:          im.ID,
			ProductName: im.ProductName,
			Category:    im.Category,
			UnitPrice:   im.UnitPrice,
			Weight:      im.Weight,
			TotalPrice:  im.TotalPrice,
			ImageURL:    im.ImageURL,
		}
		if s, ok := schedules[im.ID]; ok {
			items[i].Garland = &order.GarlandSchedule{
				DeliveryAt:     s.DeliveryAt.UTC(),
				ReminderSent:   s.ReminderSent,
				LastReminderAt: s.LastReminderAt,
			}
		}
	}

	return order.ReconstructOrder(
		m.ID,
		m.OrderNumber,
		m.UserID,
		order.Customer{Name: m.CustomerName, Email: m.CustomerEmail, Phone: m.CustomerPhone},
		m.DeliveryAddress,
		order.Status(m.Status),
		order.TrackingStatus(m.TrackingStatus),
		items,
		m.Subtotal, m.DeliveryFee, m.TotalAmount,
		m.ConfirmedAt, m.PickedAt, m.OutForDeliveryAt, m.DeliveredAt, m.CancelledAt,
		m.CancelReason, m.CancelledBy, m.Notes,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
