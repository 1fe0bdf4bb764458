package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/partyhall"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// exclusionViolation is the SQLSTATE raised by the party_hall_bookings_no_overlap constraint.
const exclusionViolation = "23P01"

const slotConflictMessage = "the hall is already booked for an overlapping time"

// PartyHallBookingModel is the GORM model for the party_hall_bookings table.
type PartyHallBookingModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber string          `gorm:"uniqueIndex;not null"`
	HallID        string          `gorm:"type:varchar(64);not null;index:idx_party_hall_start"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ContactName   string          `gorm:"type:varchar(255)"`
	ContactPhone  string          `gorm:"type:varchar(50)"`
	ContactEmail  string          `gorm:"type:varchar(255)"`
	EventDate     time.Time       `gorm:"type:date;not null"`
	StartTime     time.Time       `gorm:"not null;index:idx_party_hall_start"`
	EndTime       time.Time       `gorm:"not null"`
	PersonCount   int             `gorm:"not null"`
	SnacksCount   int             `gorm:"not null;default:0"`
	WaterCount    int             `gorm:"not null;default:0"`
	CakeCount     int             `gorm:"not null;default:0"`
	AddOns        json.RawMessage `gorm:"type:jsonb;not null"`
	BaseCharge    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	AddOnCharge   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalCharge   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null"`
	Notes         string          `gorm:"type:text"`
	CancelReason  string          `gorm:"type:text"`
	CancelledAt   *time.Time
	Version       int64     `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (PartyHallBookingModel) TableName() string { return "party_hall_bookings" }

// GormPartyHallRepository implements partyhall.BookingRepository using GORM.
type GormPartyHallRepository struct {
	db *gorm.DB
}

func NewGormPartyHallRepository(db *gorm.DB) *GormPartyHallRepository {
	return &GormPartyHallRepository{db: db}
}

func (r *GormPartyHallRepository) FindByID(ctx context.Context, id uuid.UUID) (*partyhall.Booking, error) {
	var model PartyHallBookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("party hall booking", id.String())
		}
		return nil, domain.NewStorageError("failed to find party hall booking", err)
	}
	return toDomainPartyHall(&model)
}

func (r *GormPartyHallRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*partyhall.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&PartyHallBookingModel{}).Scopes(byUser(userID)).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("failed to count party hall bookings", err)
	}

	var models []PartyHallBookingModel
	err := r.db.WithContext(ctx).Scopes(byUser(userID)).Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error
	if err != nil {
		return nil, 0, domain.NewStorageError("failed to list party hall bookings", err)
	}
	bookings, err := toDomainPartyHalls(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListActiveInWindow returns the hall's non-cancelled bookings intersecting window,
// including those that started the day before and run past midnight.
func (r *GormPartyHallRepository) ListActiveInWindow(ctx context.Context, hallID string, window partyhall.Slot) ([]*partyhall.Booking, error) {
	var models []PartyHallBookingModel
	err := r.db.WithContext(ctx).
		Scopes(activeOverlapping(hallID, window)).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, domain.NewStorageError("failed to list party hall bookings", err)
	}
	return toDomainPartyHalls(models)
}

func (r *GormPartyHallRepository) HasOverlap(ctx context.Context, hallID string, slot partyhall.Slot) (bool, error) {
	count, err := countOverlapping(r.db.WithContext(ctx), hallID, slot)
	if err != nil {
		return false, domain.NewStorageError("failed to check hall availability", err)
	}
	return count > 0, nil
}

// SaveIfAvailable serializes bookings of one hall on a transaction-scoped advisory
// lock, then checks for overlap and inserts under that lock. Slots may cross
// midnight, so the lock covers the whole hall rather than one event date.
func (r *GormPartyHallRepository) SaveIfAvailable(ctx context.Context, b *partyhall.Booking) error {
	model, err := toPartyHallModel(b)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "party_hall:"+b.HallID()).Error; err != nil {
			return err
		}
		count, err := countOverlapping(tx, b.HallID(), b.Slot())
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.NewSlotConflictError(slotConflictMessage)
		}
		return tx.Create(&model).Error
	})
	if err == nil {
		return nil
	}

	var domErr *domain.Error
	if errors.As(err, &domErr) {
		return domErr
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return domain.NewSlotConflictError(slotConflictMessage)
	}
	return domain.NewStorageError("failed to save party hall booking", err)
}

func countOverlapping(db *gorm.DB, hallID string, slot partyhall.Slot) (int64, error) {
	var count int64
	err := db.Model(&PartyHallBookingModel{}).Scopes(activeOverlapping(hallID, slot)).Count(&count).Error
	return count, err
}

// activeOverlapping selects non-cancelled bookings of hallID intersecting the half-open slot.
func activeOverlapping(hallID string, slot partyhall.Slot) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("hall_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
			hallID, string(partyhall.StatusCancelled), slot.End, slot.Start)
	}
}

// Update persists status changes with optimistic locking.
func (r *GormPartyHallRepository) Update(ctx context.Context, b *partyhall.Booking) error {
	result := r.db.WithContext(ctx).
		Model(&PartyHallBookingModel{}).
		Where("id = ? AND version = ?", b.ID(), b.Version()-1).
		Updates(map[string]interface{}{
			"status":        string(b.Status()),
			"cancel_reason": b.CancelReason(),
			"cancelled_at":  b.CancelledAt(),
			"version":       b.Version(),
			"updated_at":    b.UpdatedAt(),
		})
	if result.Error != nil {
		return domain.NewStorageError("failed to update party hall booking", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("party hall booking was modified by another request")
	}
	return nil
}

func toPartyHallModel(b *partyhall.Booking) (PartyHallBookingModel, error) {
	addOns, err := json.Marshal(b.AddOns())
	if err != nil {
		return PartyHallBookingModel{}, domain.NewStorageError("failed to encode add-ons", err)
	}
	c := b.Contact()
	counts := b.Counts()
	return PartyHallBookingModel{
		ID:            b.ID(),
		BookingNumber: b.BookingNumber(),
		HallID:        b.HallID(),
		UserID:        b.UserID(),
		ContactName:   c.Name,
		ContactPhone:  c.Phone,
		ContactEmail:  c.Email,
		EventDate:     b.EventDate(),
		StartTime:     b.Slot().Start,
		EndTime:       b.Slot().End,
		PersonCount:   b.PersonCount(),
		SnacksCount:   counts.Snacks,
		WaterCount:    counts.Water,
		CakeCount:     counts.Cake,
		AddOns:        addOns,
		BaseCharge:    b.BaseCharge(),
		AddOnCharge:   b.AddOnCharge(),
		TotalCharge:   b.TotalCharge(),
		Status:        string(b.Status()),
		Notes:         b.Notes(),
		CancelReason:  b.CancelReason(),
		CancelledAt:   b.CancelledAt(),
		Version:       b.Version(),
		CreatedAt:     b.CreatedAt(),
		UpdatedAt:     b.UpdatedAt(),
	}, nil
}

func toDomainPartyHalls(models []PartyHallBookingModel) ([]*partyhall.Booking, error) {
	out := make([]*partyhall.Booking, 0, len(models))
	for i := range models {
		b, err := toDomainPartyHall(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func toDomainPartyHall(m *PartyHallBookingModel) (*partyhall.Booking, error) {
	var addOns []string
	if len(m.AddOns) > 0 {
		if err := json.Unmarshal(m.AddOns, &addOns); err != nil {
			return nil, domain.NewStorageError("failed to decode add-ons", err)
		}
	}
	eventDate := time.Date(m.EventDate.Year(), m.EventDate.Month(), m.EventDate.Day(), 0, 0, 0, 0, time.UTC)
	return partyhall.ReconstructBooking(
		m.ID,
		m.BookingNumber, m.HallID,
		m.UserID,
		partyhall.Contact{Name: m.ContactName, Phone: m.ContactPhone, Email: m.ContactEmail},
		eventDate,
		partyhall.Slot{Start: m.StartTime.UTC(), End: m.EndTime.UTC()},
		m.PersonCount,
		partyhall.AddOnCounts{Snacks: m.SnacksCount, Water: m.WaterCount, Cake: m.CakeCount},
		addOns,
		m.BaseCharge, m.AddOnCharge, m.TotalCharge,
		partyhall.BookingStatus(m.Status),
		m.Notes, m.CancelReason,
		m.CancelledAt,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}
