package events

import (
	"context"
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/metrics"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/mail"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Recipients names the operator inbox and the contact shown to customers.
type Recipients struct {
	AdminUserID    uuid.UUID
	AdminEmail     string
	SupportContact string
}

// SideEffectConsumer turns lifecycle events into notifications and emails.
// A failed notification write is retried; a failed mail is logged and dropped.
type SideEffectConsumer struct {
	consumer      *kafka.Consumer
	notifications notification.NotificationRepository
	mailer        mail.Mailer
	recipients    Recipients
	logger        *zap.Logger
}

// NewSideEffectConsumer creates a consumer of TopicMarketplaceEvents. consumer may be
// nil when events are fed through Handle directly.
func NewSideEffectConsumer(
	consumer *kafka.Consumer,
	notifications notification.NotificationRepository,
	mailer mail.Mailer,
	recipients Recipients,
	logger *zap.Logger,
) *SideEffectConsumer {
	return &SideEffectConsumer{
		consumer:      consumer,
		notifications: notifications,
		mailer:        mailer,
		recipients:    recipients,
		logger:        logger,
	}
}

// Start begins consuming events. This blocks until the context is cancelled.
func (c *SideEffectConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *SideEffectConsumer) Close() error {
	return c.consumer.Close()
}

func (c *SideEffectConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from marketplace topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}
	return c.Handle(ctx, ce)
}

// Handle applies the side effects of one event.
func (c *SideEffectConsumer) Handle(ctx context.Context, ce kafka.CloudEvent) error {
	var err error
	switch ce.Type {
	case OrderCreated:
		err = c.handleOrderCreated(ctx, ce)
	case OrderConfirmed:
		err = c.handleOrderConfirmed(ctx, ce)
	case OrderStatusAdvanced:
		err = c.handleOrderStatusAdvanced(ctx, ce)
	case OrderCancelled:
		err = c.handleOrderCancelled(ctx, ce)
	case OrderGarlandReminder:
		err = c.handleGarlandReminder(ctx, ce)
	case TransportCreated, TransportConfirmed, TransportCancelled:
		err = c.handleTransport(ctx, ce)
	case PartyHallCreated, PartyHallCancelled:
		err = c.handlePartyHall(ctx, ce)
	default:
		c.logger.Debug("ignoring unhandled event type", zap.String("type", ce.Type))
		return nil
	}

	metrics.RecordEvent(ce.Type, err)
	if err != nil {
		return err
	}
	c.logger.Info("side effects applied",
		zap.String("type", ce.Type),
		zap.String("subject", ce.Subject),
		zap.String("event_id", ce.ID),
	)
	return nil
}

func (c *SideEffectConsumer) handleOrderCreated(ctx context.Context, ce kafka.CloudEvent) error {
	var evt OrderCreatedEvent
	if !c.parse(ce, &evt) {
		return nil
	}
	return c.notify(ctx, evt.UserID, fmt.Sprintf(
		"Your order %s has been placed. Total: %s", evt.OrderNumber, evt.TotalAmount.StringFixed(2)))
}

func (c *SideEffectConsumer) handleOrderConfirmed(ctx context.Context, ce kafka.CloudEvent) error {
	var evt OrderConfirmedEvent
	if !c.parse(ce, &evt) {
		return nil
	}
	if err := c.notify(ctx, evt.UserID, fmt.Sprintf(
		"Your order %s has been confirmed. Grand total: %s", evt.OrderNumber, evt.TotalAmount.StringFixed(2))); err != nil {
		return err
	}
	c.send(ctx, orderConfirmationMail(evt))
	return nil
}

func (c *SideEffectConsumer) handleOrderStatusAdvanced(ctx context.Context, ce kafka.CloudEvent) error {
	var evt OrderStatusAdvancedEvent
	if !c.parse(ce, &evt) {
		return nil
	}
	return c.notify(ctx, evt.UserID, fmt.Sprintf(
		"Your order %s is now %s", evt.OrderNumber, humanStatus(evt.TrackingStatus)))
}

func (c *SideEffectConsumer) handleOrderCancelled(ctx context.Context, ce kafka.CloudEvent) error {
	var evt OrderCancelledEvent
	if !c.parse(ce, &evt) {
		return nil
	}
	if err := c.notify(ctx, evt.UserID, fmt.Sprintf(
		"Your order %s has been cancelled. Reason: %s", evt.OrderNumber, evt.Reason)); err != nil {
		return err
	}

	if evt.CancelledBy != "customer" {
		return nil
	}
	if c.recipients.AdminUserID != uuid.Nil {
		if err := c.notify(ctx, c.recipients.AdminUserID, fmt.Sprintf(
			"Order %s was cancelled by %s. Reason: %s", evt.OrderNumber, evt.CustomerName, evt.Reason)); err != nil {
			return err
		}
	}
	if c.recipients.AdminEmail != "" {
		c.send(ctx, adminOrderCancelledMail(c.recipients.AdminEmail, evt))
	}
	return nil
}

func (c *SideEffectConsumer) handleGarlandReminder(ctx context.Context, ce kafka.CloudEvent) error {
	var evt GarlandReminderEvent
	if !c.parse(ce, &evt) {
		return nil
	}
	if err := c.notify(ctx, evt.UserID, fmt.Sprintf(
		"Reminder: your %s (order %s) will be delivered at %s",
		evt.ProductName, evt.OrderNumber, evt.DeliveryAt.Format("02 Jan 2006 15:04"))); err != nil {
		return err
	}
	c.send(ctx, garlandReminderMail(evt))
	return nil
}

func (c *SideEffectConsumer) handleTransport(ctx context.Context, ce kafka.CloudEvent) error {
	var evt TransportBookingEvent
	if !c.parse(ce, &evt) {
		return nil
	}

	var message string
	switch ce.Type {
	case TransportCreated:
		message = fmt.Sprintf("Transport booking %s received. Distance %s km, charge %s",
			evt.BookingNumber, evt.DistanceKm.StringFixed(2), evt.ChargeAmount.StringFixed(2))
	case TransportConfirmed:
		message = fmt.Sprintf("Transport booking %s has been confirmed", evt.BookingNumber)
	default:
		message = fmt.Sprintf("Transport booking %s has been cancelled. Reason: %s", evt.BookingNumber, evt.Reason)
	}
	if err := c.notify(ctx, evt.UserID, message); err != nil {
		return err
	}

	if ce.Type == TransportConfirmed {
		c.send(ctx, transportConfirmedMail(evt.CustomerEmail, evt))
		if c.recipients.AdminEmail != "" {
			c.send(ctx, transportConfirmedMail(c.recipients.AdminEmail, evt))
		}
	}
	return nil
}

func (c *SideEffectConsumer) handlePartyHall(ctx context.Context, ce kafka.CloudEvent) error {
	var evt PartyHallBookingEvent
	if !c.parse(ce, &evt) {
		return nil
	}

	if ce.Type == PartyHallCancelled {
		return c.notify(ctx, evt.UserID, fmt.Sprintf(
			"Party hall booking %s on %s has been cancelled. Reason: %s", evt.BookingNumber, evt.EventDate, evt.Reason))
	}

	if err := c.notify(ctx, evt.UserID, partyHallBookedText(evt, c.recipients.SupportContact)); err != nil {
		return err
	}
	c.send(ctx, partyHallBookedMail(evt, c.recipients.SupportContact))
	return nil
}

func (c *SideEffectConsumer) parse(ce kafka.CloudEvent, v interface{}) bool {
	if err := ce.ParseData(v); err != nil {
		c.logger.Error("failed to parse event data", zap.String("type", ce.Type), zap.Error(err))
		return false
	}
	return true
}

func (c *SideEffectConsumer) notify(ctx context.Context, userID uuid.UUID, message string) error {
	n, err := notification.New(userID, message)
	if err != nil {
		c.logger.Warn("skipping notification", zap.Error(err))
		return nil
	}
	if err := c.notifications.Save(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification for %s: %w", userID, err)
	}
	return nil
}

func (c *SideEffectConsumer) send(ctx context.Context, msg mail.Message) {
	if msg.To == "" {
		return
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		c.logger.Error("failed to send mail",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}

func humanStatus(s string) string {
	switch s {
	case "PICKED":
		return "picked up"
	case "OUT_FOR_DELIVERY":
		return "out for delivery"
	case "DELIVERED":
		return "delivered"
	}
	return s
}
