package order

import (
	"strings"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer holds the contact details captured on an order.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// NewOrderParams is the input for NewOrder.
type NewOrderParams struct {
	UserID          uuid.UUID
	Customer        Customer
	DeliveryAddress string
	Notes           string
	Items           []ItemInput
}

// Order is the aggregate root for grocery and garland orders.
type Order struct {
	id              uuid.UUID
	orderNumber     string
	userID          uuid.UUID
	customer        Customer
	deliveryAddress string
	status          Status
	trackingStatus  TrackingStatus
	items           []Item

	subtotal    decimal.Decimal
	deliveryFee decimal.Decimal
	totalAmount decimal.Decimal

	confirmedAt      *time.Time
	pickedAt         *time.Time
	outForDeliveryAt *time.Time
	deliveredAt      *time.Time
	cancelledAt      *time.Time
	cancelReason     string
	cancelledBy      string
	notes            string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewOrder creates a PENDING order. now is used for the garland lead-time check.
func NewOrder(p NewOrderParams, now time.Time) (*Order, error) {
	if p.UserID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if len(p.Items) == 0 {
		return nil, domain.NewEmptyOrderError()
	}
	if strings.TrimSpace(p.DeliveryAddress) == "" {
		return nil, domain.NewValidationError("delivery address is required")
	}

	items := make([]Item, 0, len(p.Items))
	subtotal := decimal.Zero
	for _, in := range p.Items {
		item, err := newItem(in, now)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(item.TotalPrice)
		items = append(items, item)
	}

	orderNumber, err := domain.GenerateReference("OD")
	if err != nil {
		return nil, err
	}

	fee := pricing.DeliveryFee(subtotal)
	ts := now.UTC()
	return &Order{
		id:              uuid.New(),
		orderNumber:     orderNumber,
		userID:          p.UserID,
		customer:        p.Customer,
		deliveryAddress: p.DeliveryAddress,
		status:          StatusPending,
		trackingStatus:  TrackingPending,
		items:           items,
		subtotal:        subtotal,
		deliveryFee:     fee,
		totalAmount:     subtotal.Add(fee),
		notes:           p.Notes,
		version:         1,
		createdAt:       ts,
		updatedAt:       ts,
	}, nil
}

// ReconstructOrder rebuilds an Order from persistence data (no validation).
func ReconstructOrder(
	id uuid.UUID,
	orderNumber string,
	userID uuid.UUID,
	customer Customer,
	deliveryAddress string,
	status Status,
	trackingStatus TrackingStatus,
	items []Item,
	subtotal, deliveryFee, totalAmount decimal.Decimal,
	confirmedAt, pickedAt, outForDeliveryAt, deliveredAt, cancelledAt *time.Time,
	cancelReason, cancelledBy, notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:               id,
		orderNumber:      orderNumber,
		userID:           userID,
		customer:         customer,
		deliveryAddress:  deliveryAddress,
		status:           status,
		trackingStatus:   trackingStatus,
		items:            items,
		subtotal:         subtotal,
		deliveryFee:      deliveryFee,
		totalAmount:      totalAmount,
		confirmedAt:      confirmedAt,
		pickedAt:         pickedAt,
		outForDeliveryAt: outForDeliveryAt,
		deliveredAt:      deliveredAt,
		cancelledAt:      cancelledAt,
		cancelReason:     cancelReason,
		cancelledBy:      cancelledBy,
		notes:            notes,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

func (o *Order) ID() uuid.UUID                  { return o.id }
func (o *Order) OrderNumber() string            { return o.orderNumber }
func (o *Order) UserID() uuid.UUID              { return o.userID }
func (o *Order) Customer() Customer             { return o.customer }
func (o *Order) DeliveryAddress() string        { return o.deliveryAddress }
func (o *Order) Status() Status                 { return o.status }
func (o *Order) TrackingStatus() TrackingStatus { return o.trackingStatus }
func (o *Order) Subtotal() decimal.Decimal      { return o.subtotal }
func (o *Order) DeliveryFee() decimal.Decimal   { return o.deliveryFee }
func (o *Order) TotalAmount() decimal.Decimal   { return o.totalAmount }
func (o *Order) ConfirmedAt() *time.Time        { return o.confirmedAt }
func (o *Order) PickedAt() *time.Time           { return o.pickedAt }
func (o *Order) OutForDeliveryAt() *time.Time   { return o.outForDeliveryAt }
func (o *Order) DeliveredAt() *time.Time        { return o.deliveredAt }
func (o *Order) CancelledAt() *time.Time        { return o.cancelledAt }
func (o *Order) CancelReason() string           { return o.cancelReason }
func (o *Order) CancelledBy() string            { return o.cancelledBy }
func (o *Order) Notes() string                  { return o.notes }
func (o *Order) Version() int64                 { return o.version }
func (o *Order) CreatedAt() time.Time           { return o.createdAt }
func (o *Order) UpdatedAt() time.Time           { return o.updatedAt }

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	out := make([]Item, len(o.items))
	copy(out, o.items)
	return out
}

// --- Behavior ---

// Confirm accepts a PENDING order.
func (o *Order) Confirm() error {
	if o.trackingStatus != TrackingPending {
		return domain.NewInvalidTransitionError(string(o.trackingStatus), string(TrackingConfirmed))
	}
	now := time.Now().UTC()
	o.status = StatusConfirmed
	o.trackingStatus = TrackingConfirmed
	o.confirmedAt = &now
	o.updatedAt = now
	return nil
}

// Advance moves the order to requested, which must be the next fulfilment stage.
func (o *Order) Advance(requested TrackingStatus) error {
	next, ok := o.trackingStatus.Next()
	if !ok || requested != next {
		return domain.NewInvalidTransitionError(string(o.trackingStatus), string(requested))
	}

	now := time.Now().UTC()
	switch next {
	case TrackingPicked:
		o.pickedAt = &now
	case TrackingOutForDelivery:
		o.outForDeliveryAt = &now
	case TrackingDelivered:
		o.deliveredAt = &now
	}
	o.trackingStatus = next
	o.updatedAt = now
	return nil
}

// Cancel cancels a non-terminal order, recording who cancelled it and why.
func (o *Order) Cancel(reason, cancelledBy string) error {
	if strings.TrimSpace(reason) == "" {
		return domain.NewValidationError("cancellation reason is required")
	}
	if !o.trackingStatus.CanBeCancelled() {
		return domain.NewAlreadyTerminalError("order", string(o.trackingStatus))
	}
	now := time.Now().UTC()
	o.status = StatusCancelled
	o.trackingStatus = TrackingCancelled
	o.cancelReason = reason
	o.cancelledBy = cancelledBy
	o.cancelledAt = &now
	o.updatedAt = now
	return nil
}

// HasGarlandItems reports whether any line carries a garland schedule.
func (o *Order) HasGarlandItems() bool {
	for _, it := range o.items {
		if it.Garland != nil {
			return true
		}
	}
	return false
}

// IncrementVersion bumps the version for optimistic locking.
func (o *Order) IncrementVersion() {
	o.version++
	o.updatedAt = time.Now().UTC()
}
