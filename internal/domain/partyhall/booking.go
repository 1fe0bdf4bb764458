package partyhall

import (
	"sort"
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle state of a party-hall booking.
type BookingStatus string

const (
	StatusBooked    BookingStatus = "BOOKED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Contact holds the customer details captured on a booking.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// AddOnCounts are the quantities ordered per counted add-on.
type AddOnCounts struct {
	Snacks int
	Water  int
	Cake   int
}

// NewBookingParams is the input for NewBooking.
type NewBookingParams struct {
	HallID      string
	UserID      uuid.UUID
	Contact     Contact
	EventDate   string
	StartTime   string
	PersonCount int
	Counts      AddOnCounts
	AddOns      []string
	Notes       string
}

// Booking is the aggregate root for party-hall reservations.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	hallID        string
	userID        uuid.UUID
	contact       Contact
	eventDate     time.Time
	slot          Slot
	personCount   int
	counts        AddOnCounts
	addOns        []string
	baseCharge    decimal.Decimal
	addOnCharge   decimal.Decimal
	totalCharge   decimal.Decimal
	status        BookingStatus
	notes         string
	cancelReason  string
	cancelledAt   *time.Time
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewBooking validates the request and prices it against tariff. Availability is
// checked by the repository when the booking is saved.
func NewBooking(p NewBookingParams, tariff pricing.PartyHallTariff) (*Booking, error) {
	if p.UserID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if strings.TrimSpace(p.HallID) == "" {
		return nil, domain.NewValidationError("hall ID is required")
	}
	if strings.TrimSpace(p.Contact.Name) == "" || strings.TrimSpace(p.Contact.Phone) == "" {
		return nil, domain.NewValidationError("customer name and phone are required")
	}
	if p.PersonCount <= 0 {
		return nil, domain.NewValidationError("person count must be positive")
	}
	if p.Counts.Snacks < 0 || p.Counts.Water < 0 || p.Counts.Cake < 0 {
		return nil, domain.NewValidationError("add-on counts cannot be negative")
	}

	eventDate, err := ParseEventDate(p.EventDate)
	if err != nil {
		return nil, err
	}
	slot, err := ParseSlot(eventDate, p.StartTime)
	if err != nil {
		return nil, err
	}

	addOns := make([]string, 0, len(p.AddOns))
	for name := range pricing.NormalizeAddOns(p.AddOns) {
		addOns = append(addOns, name)
	}
	sort.Strings(addOns)

	addOnCharge := tariff.AddOnCharge(p.PersonCount, p.Counts.Snacks, p.Counts.Water, p.Counts.Cake, addOns)

	number, err := domain.GenerateReference("PH")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: number,
		hallID:        p.HallID,
		userID:        p.UserID,
		contact:       p.Contact,
		eventDate:     eventDate,
		slot:          slot,
		personCount:   p.PersonCount,
		counts:        p.Counts,
		addOns:        addOns,
		baseCharge:    tariff.BaseCharge,
		addOnCharge:   addOnCharge,
		totalCharge:   pricing.Round2(tariff.BaseCharge.Add(addOnCharge)),
		status:        StatusBooked,
		notes:         p.Notes,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber, hallID string,
	userID uuid.UUID,
	contact Contact,
	eventDate time.Time,
	slot Slot,
	personCount int,
	counts AddOnCounts,
	addOns []string,
	baseCharge, addOnCharge, totalCharge decimal.Decimal,
	status BookingStatus,
	notes, cancelReason string,
	cancelledAt *time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		hallID:        hallID,
		userID:        userID,
		contact:       contact,
		eventDate:     eventDate,
		slot:          slot,
		personCount:   personCount,
		counts:        counts,
		addOns:        addOns,
		baseCharge:    baseCharge,
		addOnCharge:   addOnCharge,
		totalCharge:   totalCharge,
		status:        status,
		notes:         notes,
		cancelReason:  cancelReason,
		cancelledAt:   cancelledAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) BookingNumber() string        { return b.bookingNumber }
func (b *Booking) HallID() string               { return b.hallID }
func (b *Booking) UserID() uuid.UUID            { return b.userID }
func (b *Booking) Contact() Contact             { return b.contact }
func (b *Booking) EventDate() time.Time         { return b.eventDate }
func (b *Booking) Slot() Slot                   { return b.slot }
func (b *Booking) PersonCount() int             { return b.personCount }
func (b *Booking) Counts() AddOnCounts          { return b.counts }
func (b *Booking) AddOns() []string             { return append([]string(nil), b.addOns...) }
func (b *Booking) BaseCharge() decimal.Decimal  { return b.baseCharge }
func (b *Booking) AddOnCharge() decimal.Decimal { return b.addOnCharge }
func (b *Booking) TotalCharge() decimal.Decimal { return b.totalCharge }
func (b *Booking) Status() BookingStatus        { return b.status }
func (b *Booking) Notes() string                { return b.notes }
func (b *Booking) CancelReason() string         { return b.cancelReason }
func (b *Booking) CancelledAt() *time.Time      { return b.cancelledAt }
func (b *Booking) Version() int64               { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// IsActive reports whether the booking still holds its slot.
func (b *Booking) IsActive() bool { return b.status != StatusCancelled }

// Cancel releases the slot.
func (b *Booking) Cancel(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domain.NewValidationError("cancellation reason is required")
	}
	if b.status == StatusCancelled {
		return domain.NewAlreadyTerminalError("party hall booking", string(b.status))
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
