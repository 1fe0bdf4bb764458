package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/transport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransportBookingModel is the GORM model for the transport_bookings table.
type TransportBookingModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber string          `gorm:"uniqueIndex;not null"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ContactName   string          `gorm:"type:varchar(255)"`
	ContactPhone  string          `gorm:"type:varchar(50)"`
	ContactEmail  string          `gorm:"type:varchar(255)"`
	Route         json.RawMessage `gorm:"type:jsonb;not null"`
	DistanceKm    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	RatePerKm     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ChargeAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;index"`
	Notes         string          `gorm:"type:text"`
	CancelReason  string          `gorm:"type:text"`
	ConfirmedAt   *time.Time
	CancelledAt   *time.Time
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (TransportBookingModel) TableName() string { return "transport_bookings" }

// GormTransportRepository implements transport.BookingRepository using GORM.
type GormTransportRepository struct {
	db *gorm.DB
}

func NewGormTransportRepository(db *gorm.DB) *GormTransportRepository {
	return &GormTransportRepository{db: db}
}

func (r *GormTransportRepository) FindByID(ctx context.Context, id uuid.UUID) (*transport.Booking, error) {
	var model TransportBookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("transport booking", id.String())
		}
		return nil, domain.NewStorageError("failed to find transport booking", err)
	}
	return toDomainTransport(&model)
}

func (r *GormTransportRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*transport.Booking, int64, error) {
	return r.list(ctx, byUser(userID), page, limit)
}

func (r *GormTransportRepository) ListAll(ctx context.Context, page, limit int) ([]*transport.Booking, int64, error) {
	return r.list(ctx, allRows, page, limit)
}

func (r *GormTransportRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, limit int) ([]*transport.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TransportBookingModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to count transport bookings", err)
	}

	var models []TransportBookingModel
	err := r.db.WithContext(ctx).Scopes(scope).Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, 0, domain.NewStorageError("failed to list transport bookings", err)
	}

	bookings := make([]*transport.Booking, 0, len(models))
	for i := range models {
		b, err := toDomainTransport(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	return bookings, total, nil
}

func (r *GormTransportRepository) Save(ctx context.Context, b *transport.Booking) error {
	model, err := toTransportModel(b)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.NewStorageError("failed to save transport booking", err)
	}
	return nil
}

// Update persists status changes with optimistic locking.
func (r *GormTransportRepository) Update(ctx context.Context, b *transport.Booking) error {
	result := r.db.WithContext(ctx).
		Model(&TransportBookingModel{}).
		Where("id = ? AND version = ?", b.ID(), b.Version()-1).
		Updates(map[string]interface{}{
			"status":        string(b.Status()),
			"cancel_reason": b.CancelReason(),
			"confirmed_at":  b.ConfirmedAt(),
			"cancelled_at":  b.CancelledAt(),
			"version":       b.Version(),
			"updated_at":    b.UpdatedAt(),
		})
	if result.Error != nil {
		return domain.NewStorageError("failed to update transport booking", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("transport booking was modified by another request")
	}
	return nil
}

func toTransportModel(b *transport.Booking) (TransportBookingModel, error) {
	route, err := json.Marshal(b.Route())
	if err != nil {
		return TransportBookingModel{}, domain.NewStorageError("failed to encode route", err)
	}
	c := b.Contact()
	return TransportBookingModel{
		ID:            b.ID(),
		BookingNumber: b.BookingNumber(),
		UserID:        b.UserID(),
		ContactName:   c.Name,
		ContactPhone:  c.Phone,
		ContactEmail:  c.Email,
		Route:         route,
		DistanceKm:    b.DistanceKm(),
		RatePerKm:     b.RatePerKm(),
		ChargeAmount:  b.ChargeAmount(),
		Status:        string(b.Status()),
		Notes:         b.Notes(),
		CancelReason:  b.CancelReason(),
		ConfirmedAt:   b.ConfirmedAt(),
		CancelledAt:   b.CancelledAt(),
		Version:       b.Version(),
		CreatedAt:     b.CreatedAt(),
		UpdatedAt:     b.UpdatedAt(),
	}, nil
}

func toDomainTransport(m *TransportBookingModel) (*transport.Booking, error) {
	var route transport.Route
	if err := json.Unmarshal(m.Route, &route); err != nil {
		return nil, domain.NewStorageError("failed to decode route", err)
	}
	return transport.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.UserID,
		transport.Contact{Name: m.ContactName, Phone: m.ContactPhone, Email: m.ContactEmail},
		route,
		m.DistanceKm, m.RatePerKm, m.ChargeAmount,
		transport.BookingStatus(m.Status),
		m.Notes, m.CancelReason,
		m.ConfirmedAt, m.CancelledAt,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
