package transport

import (
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contact holds the customer details captured on a booking.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Booking is the aggregate root for goods transport bookings.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	userID        uuid.UUID
	contact       Contact
	route         Route
	distanceKm    decimal.Decimal
	ratePerKm     decimal.Decimal
	chargeAmount  decimal.Decimal
	status        BookingStatus
	notes         string
	cancelReason  string
	confirmedAt   *time.Time
	cancelledAt   *time.Time
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewBooking validates the request, prices the route and returns a BOOKED booking.
func NewBooking(userID uuid.UUID, contact Contact, route Route, ratePerKm decimal.Decimal, notes string) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if strings.TrimSpace(contact.Name) == "" {
		return nil, domain.NewValidationError("customer name is required")
	}
	if strings.TrimSpace(contact.Phone) == "" {
		return nil, domain.NewValidationError("customer phone is required")
	}
	if strings.TrimSpace(route.FromAddress) == "" || strings.TrimSpace(route.ToAddress) == "" {
		return nil, domain.NewValidationError("pickup and drop addresses are required")
	}
	if !ratePerKm.IsPositive() {
		return nil, domain.NewValidationError("rate per km must be positive")
	}
	if err := route.From.Validate(); err != nil {
		return nil, err
	}
	if err := route.To.Validate(); err != nil {
		return nil, err
	}

	// The coordinates are valid here, so the only remaining failure is a zero distance.
	distance, charge, err := pricing.TransportCharge(route.From, route.To, ratePerKm)
	if err != nil {
		return nil, domain.NewInvalidDistanceError("pickup and drop must be different locations")
	}

	number, err := domain.GenerateReference("TR")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: number,
		userID:        userID,
		contact:       contact,
		route:         route,
		distanceKm:    distance,
		ratePerKm:     ratePerKm,
		chargeAmount:  charge,
		status:        StatusBooked,
		notes:         notes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	userID uuid.UUID,
	contact Contact,
	route Route,
	distanceKm, ratePerKm, chargeAmount decimal.Decimal,
	status BookingStatus,
	notes, cancelReason string,
	confirmedAt, cancelledAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		userID:        userID,
		contact:       contact,
		route:         route,
		distanceKm:    distanceKm,
		ratePerKm:     ratePerKm,
		chargeAmount:  chargeAmount,
		status:        status,
		notes:         notes,
		cancelReason:  cancelReason,
		confirmedAt:   confirmedAt,
		cancelledAt:   cancelledAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// UserID returns the customer's user ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

func (b *Booking) Contact() Contact              { return b.contact }
func (b *Booking) Route() Route                  { return b.route }
func (b *Booking) DistanceKm() decimal.Decimal   { return b.distanceKm }
func (b *Booking) RatePerKm() decimal.Decimal    { return b.ratePerKm }
func (b *Booking) ChargeAmount() decimal.Decimal { return b.chargeAmount }
func (b *Booking) Status() BookingStatus         { return b.status }
func (b *Booking) Notes() string                 { return b.notes }
func (b *Booking) CancelReason() string          { return b.cancelReason }
func (b *Booking) ConfirmedAt() *time.Time       { return b.confirmedAt }
func (b *Booking) CancelledAt() *time.Time       { return b.cancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Confirm transitions a BOOKED booking to CONFIRMED.
func (b *Booking) Confirm() error {
	switch b.status {
	case StatusConfirmed:
		return domain.NewAlreadyConfirmedError("transport booking")
	case StatusCancelled:
		return domain.NewAlreadyTerminalError("transport booking", string(b.status))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel cancels the booking with a reason.
func (b *Booking) Cancel(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domain.NewValidationError("cancellation reason is required")
	}
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewAlreadyTerminalError("transport booking", string(b.status))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
