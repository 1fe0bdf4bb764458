package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopicMarketplaceEvents carries every lifecycle event of the service.
const TopicMarketplaceEvents = "marketplace.events"

// Source is the CloudEvents source of events published by this service.
const Source = "service-marketplace"

// Event types.
const (
	OrderCreated         = "order.created"
	OrderConfirmed       = "order.confirmed"
	OrderStatusAdvanced  = "order.status_advanced"
	OrderCancelled       = "order.cancelled"
	OrderGarlandReminder = "order.garland_reminder"
	TransportCreated     = "transport.booking_created"
	TransportConfirmed   = "transport.booking_confirmed"
	TransportCancelled   = "transport.booking_cancelled"
	PartyHallCreated     = "partyhall.booking_created"
	PartyHallCancelled   = "partyhall.booking_cancelled"
)

// OrderLine is one item as shown on a confirmation.
type OrderLine struct {
	ProductName string          `json:"product_name"`
	Weight      decimal.Decimal `json:"weight"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderSnapshot is the self-contained order view carried by order events.
type OrderSnapshot struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	UserID         uuid.UUID       `json:"user_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerEmail  string          `json:"customer_email"`
	TrackingStatus string          `json:"tracking_status"`
	Lines          []OrderLine     `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

type OrderCreatedEvent struct {
	OrderSnapshot
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderConfirmedEvent struct {
	OrderSnapshot
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderStatusAdvancedEvent struct {
	OrderSnapshot
	PreviousStatus string    `json:"previous_status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type OrderCancelledEvent struct {
	OrderSnapshot
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type GarlandReminderEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	ItemID        uuid.UUID `json:"item_id"`
	UserID        uuid.UUID `json:"user_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	ProductName   string    `json:"product_name"`
	DeliveryAt    time.Time `json:"delivery_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// TransportBookingEvent is published on every transport booking transition.
type TransportBookingEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	UserID        uuid.UUID       `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	FromAddress   string          `json:"from_address"`
	ToAddress     string          `json:"to_address"`
	DistanceKm    decimal.Decimal `json:"distance_km"`
	ChargeAmount  decimal.Decimal `json:"charge_amount"`
	Status        string          `json:"status"`
	Reason        string          `json:"reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// PartyHallBookingEvent is published on every party-hall booking transition.
type PartyHallBookingEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	HallID        string          `json:"hall_id"`
	UserID        uuid.UUID       `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	EventDate     string          `json:"event_date"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	PersonCount   int             `json:"person_count"`
	AddOns        []string        `json:"add_ons"`
	BaseCharge    decimal.Decimal `json:"base_charge"`
	AddOnCharge   decimal.Decimal `json:"add_on_charge"`
	TotalCharge   decimal.Decimal `json:"total_charge"`
	Reason        string          `json:"reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
