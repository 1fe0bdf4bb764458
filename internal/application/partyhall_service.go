package application

import (
	"context"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/cache"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/metrics"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/partyhall"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreatePartyHallBookingRequest holds the data needed to reserve the hall.
type CreatePartyHallBookingRequest struct {
	CustomerName  string   `json:"customer_name" binding:"required"`
	CustomerPhone string   `json:"customer_phone" binding:"required"`
	CustomerEmail string   `json:"customer_email" binding:"omitempty,email"`
	EventDate     string   `json:"event_date" binding:"required"`
	StartTime     string   `json:"start_time" binding:"required"`
	PersonCount   int      `json:"person_count"`
	SnacksCount   int      `json:"snacks_count"`
	WaterCount    int      `json:"water_count"`
	CakeCount     int      `json:"cake_count"`
	AddOns        []string `json:"add_ons"`
	Notes         string   `json:"notes"`
}

// PartyHallBookingDTO is the response representation of a hall reservation.
type PartyHallBookingDTO struct {
	ID            uuid.UUID       `json:"id"`
	BookingNumber string          `json:"booking_number"`
	HallID        string          `json:"hall_id"`
	UserID        uuid.UUID       `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	EventDate     string          `json:"event_date"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	PersonCount   int             `json:"person_count"`
	SnacksCount   int             `json:"snacks_count"`
	WaterCount    int             `json:"water_count"`
	CakeCount     int             `json:"cake_count"`
	AddOns        []string        `json:"add_ons"`
	BaseCharge    decimal.Decimal `json:"base_charge"`
	AddOnCharge   decimal.Decimal `json:"add_on_charge"`
	TotalCharge   decimal.Decimal `json:"total_charge"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BookedSlotDTO is an occupied interval on the availability calendar.
type BookedSlotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityDTO lists the occupied slots of the hall on one date.
type AvailabilityDTO struct {
	HallID              string          `json:"hall_id"`
	Date                string          `json:"date"`
	SlotDurationMinutes int             `json:"slot_duration_minutes"`
	BookedSlots         []BookedSlotDTO `json:"booked_slots"`
}

// PartyHallService orchestrates party-hall booking use cases for one hall.
type PartyHallService struct {
	repo   partyhall.BookingRepository
	hallID string
	tariff pricing.PartyHallTariff
	events dispatcher
	idem   idempotencyKeys
	logger *zap.Logger
}

// NewPartyHallService creates a new PartyHallService.
func NewPartyHallService(
	repo partyhall.BookingRepository,
	hallID string,
	tariff pricing.PartyHallTariff,
	publisher EventPublisher,
	store cache.Store,
	logger *zap.Logger,
) *PartyHallService {
	return &PartyHallService{
		repo:   repo,
		hallID: hallID,
		tariff: tariff,
		events: dispatcher{publisher: publisher, logger: logger},
		idem:   idempotencyKeys{store: store, logger: logger},
		logger: logger,
	}
}

// CreatePartyHallBooking reserves a fixed-length slot, rejecting overlaps with SlotConflict.
func (s *PartyHallService) CreatePartyHallBooking(ctx context.Context, actor Actor, req CreatePartyHallBookingRequest, idempotencyKey string) (out Outcome[*PartyHallBookingDTO], err error) {
	defer func() { metrics.RecordOperation("partyhall.create", err) }()

	b, err := partyhall.NewBooking(partyhall.NewBookingParams{
		HallID: s.hallID,
		UserID: actor.UserID,
		Contact: partyhall.Contact{
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
			Email: firstNonEmpty(req.CustomerEmail, actor.Email),
		},
		EventDate:   req.EventDate,
		StartTime:   req.StartTime,
		PersonCount: req.PersonCount,
		Counts: partyhall.AddOnCounts{
			Snacks: req.SnacksCount,
			Water:  req.WaterCount,
			Cake:   req.CakeCount,
		},
		AddOns: req.AddOns,
		Notes:  req.Notes,
	}, s.tariff)
	if err != nil {
		return out, err
	}

	if existingID, claimed := s.idem.claim(ctx, "partyhall", actor.UserID, idempotencyKey, b.ID()); !claimed {
		existing, err := s.repo.FindByID(ctx, existingID)
		if domain.IsKind(err, domain.KindNotFound) {
			return out, domain.NewConflictError("a request with this idempotency key is still being processed")
		}
		if err != nil {
			return out, err
		}
		out.Data = toPartyHallDTO(existing)
		return out, nil
	}

	if err := s.repo.SaveIfAvailable(ctx, b); err != nil {
		s.idem.release(ctx, "partyhall", actor.UserID, idempotencyKey)
		return out, err
	}

	s.logger.Info("party hall booked",
		zap.String("booking_id", b.ID().String()),
		zap.String("hall_id", b.HallID()),
		zap.Time("start", b.Slot().Start),
		zap.Time("end", b.Slot().End),
	)

	out.DispatchError = s.events.publish(ctx, events.PartyHallCreated, b.ID().String(), partyHallEvent(b))
	out.Data = toPartyHallDTO(b)
	return out, nil
}

// GetAvailability returns the booked slots that occupy any part of date (YYYY-MM-DD),
// including a slot carried over from the previous evening.
func (s *PartyHallService) GetAvailability(ctx context.Context, date string) (*AvailabilityDTO, error) {
	eventDate, err := partyhall.ParseEventDate(date)
	if err != nil {
		return nil, err
	}
	bookings, err := s.repo.ListActiveInWindow(ctx, s.hallID, partyhall.DayWindow(eventDate))
	if err != nil {
		return nil, err
	}

	slots := make([]BookedSlotDTO, len(bookings))
	for i, b := range bookings {
		slots[i] = BookedSlotDTO{Start: b.Slot().Start, End: b.Slot().End}
	}
	return &AvailabilityDTO{
		HallID:              s.hallID,
		Date:                eventDate.Format(partyhall.DateLayout),
		SlotDurationMinutes: int(partyhall.EventDuration / time.Minute),
		BookedSlots:         slots,
	}, nil
}

// CancelPartyHallBooking releases a reservation owned by the actor (or any, for admins).
func (s *PartyHallService) CancelPartyHallBooking(ctx context.Context, actor Actor, bookingID uuid.UUID, reason string) (out Outcome[*PartyHallBookingDTO], err error) {
	defer func() { metrics.RecordOperation("partyhall.cancel", err) }()

	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return out, err
	}
	if !canAccess(actor, b.UserID()) {
		return out, domain.NewForbiddenError("booking does not belong to this user")
	}
	if err := b.Cancel(reason); err != nil {
		return out, err
	}
	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return out, err
	}

	out.DispatchError = s.events.publish(ctx, events.PartyHallCancelled, b.ID().String(), partyHallEvent(b))
	out.Data = toPartyHallDTO(b)
	return out, nil
}

// GetPartyHallBooking retrieves a reservation visible to the actor.
func (s *PartyHallService) GetPartyHallBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*PartyHallBookingDTO, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, b.UserID()) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	return toPartyHallDTO(b), nil
}

// ListMyPartyHallBookings retrieves the actor's reservations.
func (s *PartyHallService) ListMyPartyHallBookings(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[PartyHallBookingDTO], error) {
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.repo.FindByUserID(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]PartyHallBookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = *toPartyHallDTO(b)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toPartyHallDTO(b *partyhall.Booking) *PartyHallBookingDTO {
	c, counts := b.Contact(), b.Counts()
	return &PartyHallBookingDTO{
		ID:            b.ID(),
		BookingNumber: b.BookingNumber(),
		HallID:        b.HallID(),
		UserID:        b.UserID(),
		CustomerName:  c.Name,
		CustomerPhone: c.Phone,
		CustomerEmail: c.Email,
		EventDate:     b.EventDate().Format(partyhall.DateLayout),
		StartTime:     b.Slot().Start,
		EndTime:       b.Slot().End,
		PersonCount:   b.PersonCount(),
		SnacksCount:   counts.Snacks,
		WaterCount:    counts.Water,
		CakeCount:     counts.Cake,
		AddOns:        b.AddOns(),
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
	}
}

func partyHallEvent(b *partyhall.Booking) events.PartyHallBookingEvent {
	c := b.Contact()
	return events.PartyHallBookingEvent{
		BookingID:     b.ID(),
		BookingNumber: b.BookingNumber(),
		HallID:        b.HallID(),
		UserID:        b.UserID(),
		CustomerName:  c.Name,
		CustomerEmail: c.Email,
		EventDate:     b.EventDate().Format(partyhall.DateLayout),
		StartTime:     b.Slot().Start,
		EndTime:       b.Slot().End,
		PersonCount:   b.PersonCount(),
		AddOns:        b.AddOns(),
		BaseCharge:    b.BaseCharge(),
		AddOnCharge:   b.AddOnCharge(),
		TotalCharge:   b.TotalCharge(),
		Reason:        b.CancelReason(),
		OccurredAt:    time.Now().UTC(),
	}
}
