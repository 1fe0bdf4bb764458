package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   auth.Role
	Email  string
	Name   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == auth.RoleAdmin }

// ActorFromClaims builds an Actor from verified token claims.
func ActorFromClaims(c *auth.Claims) Actor {
	return Actor{UserID: c.UserID, Role: c.Role, Email: c.Email, Name: c.Name}
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return domain.NewForbiddenError("admin role required")
	}
	return nil
}

// canAccess reports whether the actor may see or act on a resource owned by ownerID.
func canAccess(a Actor, ownerID uuid.UUID) bool {
	return a.IsAdmin() || a.UserID == ownerID
}

// Outcome is the result of a committed state change. DispatchError is set when
// the follow-up event could not be published; the change itself stands.
type Outcome[T any] struct {
	Data          T
	DispatchError error
}

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// dispatcher publishes lifecycle events after commit.
type dispatcher struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// publish returns a NOTIFICATION_ERROR on failure; it never undoes the commit.
func (d dispatcher) publish(ctx context.Context, eventType, subject string, data interface{}) error {
	ce, err := kafka.NewCloudEvent(events.Source, eventType, data)
	if err != nil {
		d.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return domain.NewNotificationError(fmt.Sprintf("%s event could not be built", eventType), err)
	}

	if err := d.publisher.PublishEvent(ctx, events.TopicMarketplaceEvents, ce.WithSubject(subject)); err != nil {
		d.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return domain.NewNotificationError(fmt.Sprintf("%s notification was not dispatched", eventType), err)
	}
	return nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func nowUTC() time.Time { return time.Now().UTC() }
