package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/cache"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/metrics"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/order"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateOrderRequest holds the data needed to place an order.
type CreateOrderRequest struct {
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string             `json:"customer_phone"`
	DeliveryAddress string             `json:"delivery_address" binding:"required"`
	Notes           string             `json:"notes"`
	Items           []OrderItemRequest `json:"items" binding:"dive"`
}

// OrderItemRequest is one requested order line. DeliveryAt is required for garlands.
type OrderItemRequest struct {
	ProductName string          `json:"product_name" binding:"required"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Weight      decimal.Decimal `json:"weight"`
	ImageURL    string          `json:"image_url"`
	DeliveryAt  string          `json:"delivery_at"`
}

// OrderItemDTO is the response representation of an order line.
type OrderItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	ProductName    string          `json:"product_name"`
	Category       string          `json:"category,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Weight         decimal.Decimal `json:"weight"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	ImageURL       string          `json:"image_url,omitempty"`
	DeliveryAt     *time.Time      `json:"delivery_at,omitempty"`
	ReminderSent   bool            `json:"reminder_sent,omitempty"`
	LastReminderAt *time.Time      `json:"last_reminder_at,omitempty"`
}

// OrderDTO is the response representation of an order.
type OrderDTO struct {
	ID               uuid.UUID       `json:"id"`
	OrderNumber      string          `json:"order_number"`
	UserID           uuid.UUID       `json:"user_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	CustomerPhone    string          `json:"customer_phone,omitempty"`
	DeliveryAddress  string          `json:"delivery_address"`
	Status           string          `json:"status"`
	TrackingStatus   string          `json:"tracking_status"`
	Items            []OrderItemDTO  `json:"items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ConfirmedAt      *time.Time      `json:"confirmed_at,omitempty"`
	PickedAt         *time.Time      `json:"picked_at,omitempty"`
	OutForDeliveryAt *time.Time      `json:"out_for_delivery_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	CancelledBy      string          `json:"cancelled_by,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderStatsDTO holds order statistics for the admin dashboard.
type OrderStatsDTO struct {
	TotalOrders      int64            `json:"total_orders"`
	ByTrackingStatus map[string]int64 `json:"by_tracking_status"`
}

// ReminderReport summarises a garland reminder run.
type ReminderReport struct {
	Due  int `json:"due"`
	Sent int `json:"sent"`
}

// OrderService is the application service orchestrating order use cases.
type OrderService struct {
	repo   order.OrderRepository
	events dispatcher
	idem   idempotencyKeys
	now    func() time.Time
	logger *zap.Logger
}

// NewOrderService creates a new OrderService. store may be nil to disable idempotency keys.
func NewOrderService(repo order.OrderRepository, publisher EventPublisher, store cache.Store, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		events: dispatcher{publisher: publisher, logger: logger},
		idem:   idempotencyKeys{store: store, logger: logger},
		now:    nowUTC,
		logger: logger,
	}
}

// CreateOrder places a PENDING order for the actor. Repeating a request with the
// same idempotency key returns the order created the first time.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest, idempotencyKey string) (out Outcome[*OrderDTO], err error) {
	defer func() { metrics.RecordOperation("order.create", err) }()

	items := make([]order.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemInput{
			ProductName: it.ProductName,
			Category:    it.Category,
			UnitPrice:   it.UnitPrice,
			Weight:      it.Weight,
			ImageURL:    it.ImageURL,
			DeliveryAt:  it.DeliveryAt,
		}
	}

	o, err := order.NewOrder(order.NewOrderParams{
		UserID: actor.UserID,
		Customer: order.Customer{
			Name:  firstNonEmpty(req.CustomerName, actor.Name),
			Email: firstNonEmpty(req.CustomerEmail, actor.Email),
			Phone: req.CustomerPhone,
		},
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Items:           items,
	}, s.now())
	if err != nil {
		return out, err
	}

	if existingID, claimed := s.idem.claim(ctx, "order", actor.UserID, idempotencyKey, o.ID()); !claimed {
		existing, err := s.loadReplay(ctx, existingID)
		if err != nil {
			return out, err
		}
		out.Data = existing
		return out, nil
	}

	if err := s.repo.Save(ctx, o); err != nil {
		s.idem.release(ctx, "order", actor.UserID, idempotencyKey)
		return out, err
	}

	s.logger.Info("order created",
		zap.String("order_id", o.ID().String()),
		zap.String("order_number", o.OrderNumber()),
		zap.String("total", o.TotalAmount().StringFixed(2)),
		zap.Bool("garland", o.HasGarlandItems()),
	)

	out.DispatchError = s.events.publish(ctx, events.OrderCreated, o.ID().String(),
		events.OrderCreatedEvent{OrderSnapshot: orderSnapshot(o), OccurredAt: s.now()})
	out.Data = toOrderDTO(o)
	return out, nil
}

func (s *OrderService) loadReplay(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	o, err := s.repo.FindByID(ctx, id)
	if domain.IsKind(err, domain.KindNotFound) {
		return nil, domain.NewConflictError("a request with this idempotency key is still being processed")
	}
	if err != nil {
		return nil, err
	}
	return toOrderDTO(o), nil
}

// ConfirmOrder accepts a PENDING order (admin).
func (s *OrderService) ConfirmOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (out Outcome[*OrderDTO], err error) {
	defer func() { metrics.RecordOperation("order.confirm", err) }()

	if err := requireAdmin(actor); err != nil {
		return out, err
	}
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return out, err
	}
	if err := o.Confirm(); err != nil {
		return out, err
	}
	o.IncrementVersion()
	if err := s.repo.Update(ctx, o); err != nil {
		return out, err
	}

	out.DispatchError = s.events.publish(ctx, events.OrderConfirmed, o.ID().String(),
		events.OrderConfirmedEvent{OrderSnapshot: orderSnapshot(o), OccurredAt: s.now()})
	out.Data = toOrderDTO(o)
	return out, nil
}

// AdvanceOrderStatus moves a confirmed order to its next fulfilment stage (admin).
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, actor Actor, orderID uuid.UUID, requested string) (out Outcome[*OrderDTO], err error) {
	defer func() { metrics.RecordOperation("order.advance", err) }()

	if err := requireAdmin(actor); err != nil {
		return out, err
	}
	target, err := order.ParseTrackingStatus(requested)
	if err != nil {
		return out, domain.NewValidationError(err.Error())
	}
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return out, err
	}

	previous := o.TrackingStatus()
	if err := o.Advance(target); err != nil {
		return out, err
	}
	o.IncrementVersion()
	if err := s.repo.Update(ctx, o); err != nil {
		return out, err
	}

	out.DispatchError = s.events.publish(ctx, events.OrderStatusAdvanced, o.ID().String(),
		events.OrderStatusAdvancedEvent{
			OrderSnapshot:  orderSnapshot(o),
			PreviousStatus: string(previous),
			OccurredAt:     s.now(),
		})
	out.Data = toOrderDTO(o)
	return out, nil
}

// CancelOrder cancels a non-terminal order. Customers may only cancel their own orders.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (out Outcome[*OrderDTO], err error) {
	defer func() { metrics.RecordOperation("order.cancel", err) }()

	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return out, err
	}
	if !canAccess(actor, o.UserID()) {
		return out, domain.NewForbiddenError("order does not belong to this user")
	}
	if err := o.Cancel(reason, string(actor.Role)); err != nil {
		return out, err
	}
	o.IncrementVersion()
	if err := s.repo.Update(ctx, o); err != nil {
		return out, err
	}

	out.DispatchError = s.events.publish(ctx, events.OrderCancelled, o.ID().String(),
		events.OrderCancelledEvent{
			OrderSnapshot: orderSnapshot(o),
			Reason:        o.CancelReason(),
			CancelledBy:   o.CancelledBy(),
			OccurredAt:    s.now(),
		})
	out.Data = toOrderDTO(o)
	return out, nil
}

// GetOrder retrieves an order visible to the actor.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	o, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canAccess(actor, o.UserID()) {
		return nil, domain.NewForbiddenError("order does not belong to this user")
	}
	return toOrderDTO(o), nil
}

// ListMyOrders retrieves the actor's orders.
func (s *OrderService) ListMyOrders(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[OrderDTO], error) {
	page, limit = normalizePage(page, limit)
	orders, total, err := s.repo.FindByUserID(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toOrderDTOs(orders), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllOrders returns a paginated list of all orders (admin).
func (s *OrderService) ListAllOrders(ctx context.Context, actor Actor, page, limit int) (*domain.PaginatedResult[OrderDTO], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)
	orders, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toOrderDTOs(orders), total, page, limit)
	return &result, nil
}

// OrderStats returns order counts by tracking status (admin).
func (s *OrderService) OrderStats(ctx context.Context, actor Actor) (*OrderStatsDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByTrackingStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return &OrderStatsDTO{TotalOrders: total, ByTrackingStatus: counts}, nil
}

// SendGarlandReminders publishes a reminder for every garland delivery due within
// window and marks each one sent once its event is out (admin).
func (s *OrderService) SendGarlandReminders(ctx context.Context, actor Actor, window time.Duration) (out Outcome[ReminderReport], err error) {
	defer func() { metrics.RecordOperation("order.garland_reminders", err) }()

	if err := requireAdmin(actor); err != nil {
		return out, err
	}
	if window <= 0 {
		return out, domain.NewValidationError("reminder window must be positive")
	}

	now := s.now()
	due, err := s.repo.FindDueGarlandReminders(ctx, now, now.Add(window))
	if err != nil {
		return out, err
	}
	out.Data.Due = len(due)

	var dispatchErrs []error
	for _, r := range due {
		evt := events.GarlandReminderEvent{
			OrderID:       r.OrderID,
			OrderNumber:   r.OrderNumber,
			ItemID:        r.ItemID,
			UserID:        r.UserID,
			CustomerName:  r.CustomerName,
			CustomerEmail: r.CustomerEmail,
			ProductName:   r.ProductName,
			DeliveryAt:    r.DeliveryAt,
			OccurredAt:    now,
		}
		if err := s.events.publish(ctx, events.OrderGarlandReminder, r.OrderID.String(), evt); err != nil {
			dispatchErrs = append(dispatchErrs, err)
			continue
		}
		if err := s.repo.MarkGarlandReminderSent(ctx, r.ItemID, now); err != nil {
			return out, err
		}
		out.Data.Sent++
	}

	if len(dispatchErrs) > 0 {
		out.DispatchError = domain.NewNotificationError(
			fmt.Sprintf("%d of %d reminders were not dispatched", len(dispatchErrs), len(due)),
			errors.Join(dispatchErrs...))
	}
	return out, nil
}

// --- Helpers ---

func toOrderDTOs(orders []*order.Order) []OrderDTO {
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = *toOrderDTO(o)
	}
	return dtos
}

func toOrderDTO(o *order.Order) *OrderDTO {
	items := o.Items()
	itemDTOs := make([]OrderItemDTO, len(items))
	for i, it := range items {
		dto := OrderItemDTO{
			ID:          it.ID,
			ProductName: it.ProductName,
			Category:    it.Category,
			UnitPrice:   it.UnitPrice,
			Weight:      it.Weight,
			TotalPrice:  it.TotalPrice,
			ImageURL:    it.ImageURL,
		}
		if g := it.Garland; g != nil {
			deliveryAt := g.DeliveryAt
			dto.DeliveryAt = &deliveryAt
			dto.ReminderSent = g.ReminderSent
			dto.LastReminderAt = g.LastReminderAt
		}
		itemDTOs[i] = dto
	}

	c := o.Customer()
	return &OrderDTO{
		ID:               o.ID(),
		OrderNumber:      o.OrderNumber(),
		UserID:           o.UserID(),
		CustomerName:     c.Name,
		CustomerEmail:    c.Email,
		CustomerPhone:    c.Phone,
		DeliveryAddress:  o.DeliveryAddress(),
		Status:           string(o.Status()),
		TrackingStatus:   string(o.TrackingStatus()),
		Items:            itemDTOs,
		Subtotal:         o.Subtotal(),
		DeliveryFee:      o.DeliveryFee(),
		TotalAmount:      o.TotalAmount(),
		ConfirmedAt:      o.ConfirmedAt(),
		PickedAt:         o.PickedAt(),
		OutForDeliveryAt: o.OutForDeliveryAt(),
		DeliveredAt:      o.DeliveredAt(),
		CancelledAt:      o.CancelledAt(),
		CancelReason:     o.CancelReason(),
		CancelledBy:      o.CancelledBy(),
		Notes:            o.Notes(),
		Version:          o.Version(),
		CreatedAt:        o.CreatedAt(),
		UpdatedAt:        o.UpdatedAt(),
	}
}

func orderSnapshot(o *order.Order) events.OrderSnapshot {
	items := o.Items()
	lines := make([]events.OrderLine, len(items))
	for i, it := range items {
		lines[i] = events.OrderLine{
			ProductName: it.ProductName,
			Weight:      it.Weight,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		}
	}
	c := o.Customer()
	return events.OrderSnapshot{
		OrderID:        o.ID(),
		OrderNumber:    o.OrderNumber(),
		UserID:         o.UserID(),
		CustomerName:   c.Name,
		CustomerEmail:  c.Email,
		TrackingStatus: string(o.TrackingStatus()),
		Lines:          lines,
		Subtotal:       o.Subtotal(),
		DeliveryFee:    o.DeliveryFee(),
		TotalAmount:    o.TotalAmount(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
