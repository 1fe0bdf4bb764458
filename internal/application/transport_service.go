package application

import (
	"context"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/cache"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/metrics"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/transport"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateTransportBookingRequest holds the data needed to book a goods transport.
type CreateTransportBookingRequest struct {
	CustomerName  string  `json:"customer_name" binding:"required"`
	CustomerPhone string  `json:"customer_phone" binding:"required"`
	CustomerEmail string  `json:"customer_email" binding:"omitempty,email"`
	FromAddress   string  `json:"from_address" binding:"required"`
	ToAddress     string  `json:"to_address" binding:"required"`
	FromLat       *float64 `json:"from_lat" binding:"required"`
	FromLng       *float64 `json:"from_lng" binding:"required"`
	ToLat         *float64 `json:"to_lat" binding:"required"`
	ToLng         *float64 `json:"to_lng" binding:"required"`
	Notes         string  `json:"notes"`
}

// TransportBookingDTO is the response representation of a transport booking.
type TransportBookingDTO struct {
	ID            uuid.UUID          `json:"id"`
	BookingNumber string             `json:"booking_number"`
	UserID        uuid.UUID          `json:"user_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	FromAddress   string             `json:"from_address"`
	ToAddress     string             `json:"to_address"`
	From          pricing.Coordinate `json:"from"`
	To            pricing.Coordinate `json:"to"`
	DistanceKm    decimal.Decimal    `json:"distance_km"`
	RatePerKm     decimal.Decimal    `json:"rate_per_km"`
	ChargeAmount  decimal.Decimal    `json:"charge_amount"`
	Status        string             `json:"status"`
	Notes         string             `json:"notes,omitempty"`
	CancelReason  string             `json:"cancel_reason,omitempty"`
	ConfirmedAt   *time.Time         `json:"confirmed_at,omitempty"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TransportService orchestrates transport booking use cases.
type TransportService struct {
	repo      transport.BookingRepository
	ratePerKm decimal.Decimal
	events    dispatcher
	idem      idempotencyKeys
	logger    *zap.Logger
}

// NewTransportService creates a new TransportService charging ratePerKm.
func NewTransportService(
	repo transport.BookingRepository,
	ratePerKm decimal.Decimal,
	publisher EventPublisher,
	store cache.Store,
	logger *zap.Logger,
) *TransportService {
	return &TransportService{
		repo:      repo,
		ratePerKm: ratePerKm,
		events:    dispatcher{publisher: publisher, logger: logger},
		idem:      idempotencyKeys{store: store, logger: logger},
		logger:    logger,
	}
}

// CreateTransportBooking prices and records a transport booking for the actor.
func (s *TransportService) CreateTransportBooking(ctx context.Context, actor Actor, req CreateTransportBookingRequest, idempotencyKey string) (out Outcome[*TransportBookingDTO], err error) {
	defer func() { metrics.RecordOperation("transport.create", err) }()

	from, err := coordinate("pickup", req.FromLat, req.FromLng)
	if err != nil {
		return out, err
	}
	to, err := coordinate("drop", req.ToLat, req.ToLng)
	if err != nil {
		return out, err
	}

	b, err := transport.NewBooking(
		actor.UserID,
		transport.Contact{
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
			Email: firstNonEmpty(req.CustomerEmail, actor.Email),
		},
		transport.Route{
			FromAddress: req.FromAddress,
			ToAddress:   req.ToAddress,
			From:        from,
			To:          to,
		},
		s.ratePerKm,
		req.Notes,
	)
	if err != nil {
		return out, err
	}

	if existingID, claimed := s.idem.claim(ctx, "transport", actor.UserID, idempotencyKey, b.ID()); !claimed {
		existing, err := s.repo.FindByID(ctx, existingID)
		if domain.IsKind(err, domain.KindNotFound) {
			return out, domain.NewConflictError("a request with this idempotency key is still being processed")
		}
		if err != nil {
			return out, err
		}
		out.Data = toTransportDTO(existing)
		return out, nil
	}

	if err := s.repo.Save(ctx, b); err != nil {
		s.idem.release(ctx, "transport", actor.UserID, idempotencyKey)
		return out, err
	}

	s.logger.Info("transport booking created",
		zap.String("booking_id", b.ID().String()),
		zap.String("distance_km", b.DistanceKm().String()),
		zap.String("charge", b.ChargeAmount().StringFixed(2)),
	)

	out.DispatchError = s.events.publish(ctx, events.TransportCreated, b.ID().String(), transportEvent(b))
	out.Data = toTransportDTO(b)
	return out, nil
}

// ConfirmTransportBooking confirms a BOOKED transport booking (admin).
func (s *TransportService) ConfirmTransportBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (out Outcome[*TransportBookingDTO], err error) {
	defer func() { metrics.RecordOperation("transport.confirm", err) }()

	if err := requireAdmin(actor); err != nil {
		return out, err
	}
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return out, err
	}
	if err := b.Confirm(); err != nil {
		return out, err
	}
	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return out, err
	}

	out.DispatchError = s.events.publish(ctx, events.TransportConfirmed, b.ID().String(), transportEvent(b))
	out.Data = toTransportDTO(b)
	return out, nil
}

// CancelTransportBooking cancels a booking owned by the actor (or any booking for admins).
func (s *TransportService) CancelTransportBooking(ctx context.Context, actor Actor, bookingID uuid.UUID, reason string) (out Outcome[*TransportBookingDTO], err error) {
	defer func() { metrics.RecordOperation("transport.cancel", err) }()

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

	out.DispatchError = s.events.publish(ctx, events.TransportCancelled, b.ID().String(), transportEvent(b))
	out.Data = toTransportDTO(b)
	return out, nil
}

// GetTransportBooking retrieves a booking visible to the actor.
func (s *TransportService) GetTransportBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*TransportBookingDTO, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, b.UserID()) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	return toTransportDTO(b), nil
}

// ListMyTransportBookings retrieves the actor's transport bookings.
func (s *TransportService) ListMyTransportBookings(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[TransportBookingDTO], error) {
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.repo.FindByUserID(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toTransportDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListAllTransportBookings returns every transport booking (admin).
func (s *TransportService) ListAllTransportBookings(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[TransportBookingDTO], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toTransportDTOs(bookings), total, page, limit)
	return &result, nil
}

// coordinate rejects a point with a missing latitude or longitude; an absent
// value must not be read as zero.
func coordinate(point string, lat, lng *float64) (pricing.Coordinate, error) {
	if lat == nil || lng == nil {
		return pricing.Coordinate{}, domain.NewValidationError(point + " latitude and longitude are required")
	}
	return pricing.Coordinate{Lat: *lat, Lng: *lng}, nil
}

func toTransportDTOs(bookings []*transport.Booking) []TransportBookingDTO {
	dtos := make([]TransportBookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = *toTransportDTO(b)
	}
	return dtos
}

func toTransportDTO(b *transport.Booking) *TransportBookingDTO {
	c, r := b.Contact(), b.Route()
	return &TransportBookingDTO{
		ID:            b.ID(),
		BookingNumber: b.BookingNumber(),
		UserID:        b.UserID(),
		CustomerName:  c.Name,
		CustomerPhone: c.Phone,
		CustomerEmail: c.Email,
		FromAddress:   r.FromAddress,
		ToAddress:     r.ToAddress,
		From:          r.From,
		To:            r.To,
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
	}
}

func transportEvent(b *transport.Booking) events.TransportBookingEvent {
	c, r := b.Contact(), b.Route()
	return events.TransportBookingEvent{
		BookingID:     b.ID(),
		BookingNumber: b.BookingNumber(),
		UserID:        b.UserID(),
		CustomerName:  c.Name,
		CustomerPhone: c.Phone,
		CustomerEmail: c.Email,
		FromAddress:   r.FromAddress,
		ToAddress:     r.ToAddress,
		DistanceKm:    b.DistanceKm(),
		ChargeAmount:  b.ChargeAmount(),
		Status:        string(b.Status()),
		Reason:        b.CancelReason(),
		OccurredAt:    time.Now().UTC(),
	}
}
