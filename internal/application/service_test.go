package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/cache"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/events"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ce)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var (
	admin    = Actor{UserID: uuid.New(), Role: auth.RoleAdmin, Email: "ops@example.com", Name: "Ops"}
	customer = Actor{UserID: uuid.New(), Role: auth.RoleCustomer, Email: "asha@example.com", Name: "Asha"}
)

func newOrderService(pub EventPublisher) (*OrderService, *memory.OrderRepository) {
	repo := memory.NewOrderRepository()
	return NewOrderService(repo, pub, cache.NewMemoryStore(), zap.NewNop()), repo
}

func riceOrder() CreateOrderRequest {
	return CreateOrderRequest{
		DeliveryAddress: "12 MG Road",
		Items: []OrderItemRequest{{
			ProductName: "Basmati Rice",
			Category:    "grocery",
			UnitPrice:   decimal.NewFromInt(90),
			Weight:      decimal.NewFromInt(5),
		}},
	}
}

func TestOrderLifecycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newOrderService(pub)

	created, err := svc.CreateOrder(ctx, customer, riceOrder(), "")
	require.NoError(t, err)
	require.NoError(t, created.DispatchError)
	o := created.Data
	assert.Equal(t, "450.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", o.DeliveryFee.StringFixed(2))
	assert.Equal(t, "455.00", o.TotalAmount.StringFixed(2))
	assert.Equal(t, "Asha", o.CustomerName)
	assert.Equal(t, "asha@example.com", o.CustomerEmail)

	_, err = svc.ConfirmOrder(ctx, admin, o.ID)
	require.NoError(t, err)

	_, err = svc.AdvanceOrderStatus(ctx, admin, o.ID, "PICKED")
	require.NoError(t, err)

	_, err = svc.AdvanceOrderStatus(ctx, admin, o.ID, "DELIVERED")
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition), "stages cannot be skipped")

	_, err = svc.AdvanceOrderStatus(ctx, admin, o.ID, "OUT_FOR_DELIVERY")
	require.NoError(t, err)
	delivered, err := svc.AdvanceOrderStatus(ctx, admin, o.ID, "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", delivered.Data.TrackingStatus)
	assert.NotNil(t, delivered.Data.DeliveredAt)

	_, err = svc.CancelOrder(ctx, customer, o.ID, "too late")
	assert.True(t, domain.IsKind(err, domain.KindAlreadyTerminal))

	assert.Equal(t, []string{
		events.OrderCreated,
		events.OrderConfirmed,
		events.OrderStatusAdvanced,
		events.OrderStatusAdvanced,
		events.OrderStatusAdvanced,
	}, pub.types())
}

func TestConfirmOrder_DispatchFailureKeepsCommit(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, repo := newOrderService(pub)

	created, err := svc.CreateOrder(ctx, customer, riceOrder(), "")
	require.NoError(t, err)

	pub.err = errors.New("broker unreachable")
	out, err := svc.ConfirmOrder(ctx, admin, created.Data.ID)
	require.NoError(t, err)
	require.Error(t, out.DispatchError)
	assert.True(t, domain.IsKind(out.DispatchError, domain.KindNotification))
	assert.Equal(t, "CONFIRMED", out.Data.TrackingStatus)

	stored, err := repo.FindByID(ctx, created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", string(stored.TrackingStatus()))
}

func TestConfirmOrder_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(&recordingPublisher{})

	created, err := svc.CreateOrder(ctx, customer, riceOrder(), "")
	require.NoError(t, err)

	_, err = svc.ConfirmOrder(ctx, customer, created.Data.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = svc.ConfirmOrder(ctx, admin, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = svc.ConfirmOrder(ctx, admin, created.Data.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(ctx, admin, created.Data.ID)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidTransition))
	assert.Contains(t, err.Error(), "CONFIRMED")

	_, err = svc.AdvanceOrderStatus(ctx, admin, created.Data.ID, "SHIPPED")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestCreateOrder_EmptyAndLeadTime(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(&recordingPublisher{})
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.CreateOrder(ctx, customer, CreateOrderRequest{DeliveryAddress: "x"}, "")
	assert.True(t, domain.IsKind(err, domain.KindEmptyOrder))

	garland := func(at time.Time) CreateOrderRequest {
		return CreateOrderRequest{
			DeliveryAddress: "x",
			Items: []OrderItemRequest{{
				ProductName: "Marigold Garland",
				UnitPrice:   decimal.NewFromInt(120),
				Weight:      decimal.NewFromInt(2),
				DeliveryAt:  at.Format(time.RFC3339),
			}},
		}
	}

	_, err = svc.CreateOrder(ctx, customer, garland(now.Add(23*time.Hour+59*time.Minute)), "")
	assert.True(t, domain.IsKind(err, domain.KindInvalidLeadTime))

	out, err := svc.CreateOrder(ctx, customer, garland(now.Add(24*time.Hour+time.Minute)), "")
	require.NoError(t, err)
	require.NotNil(t, out.Data.Items[0].DeliveryAt)
}

func TestCancelOrder_Ownership(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newOrderService(pub)

	created, err := svc.CreateOrder(ctx, customer, riceOrder(), "")
	require.NoError(t, err)

	stranger := Actor{UserID: uuid.New(), Role: auth.RoleCustomer}
	_, err = svc.CancelOrder(ctx, stranger, created.Data.ID, "not mine")
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = svc.CancelOrder(ctx, customer, created.Data.ID, "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	out, err := svc.CancelOrder(ctx, customer, created.Data.ID, "ordered twice")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.Data.Status)
	assert.Equal(t, "customer", out.Data.CancelledBy)

	last := pub.events[len(pub.events)-1]
	require.Equal(t, events.OrderCancelled, last.Type)
	var evt events.OrderCancelledEvent
	require.NoError(t, last.ParseData(&evt))
	assert.Equal(t, "ordered twice", evt.Reason)
	assert.Equal(t, "customer", evt.CancelledBy)
}

func TestAdvanceOrderStatus_ConcurrentCallsApplyOnce(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, repo := newOrderService(pub)

	created, err := svc.CreateOrder(ctx, customer, riceOrder(), "")
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(ctx, admin, created.Data.ID)
	require.NoError(t, err)

	const n = 16
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AdvanceOrderStatus(ctx, admin, created.Data.ID, "PICKED")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var applied int
	for err := range errs {
		if err == nil {
			applied++
			continue
		}
		kind := domain.KindOf(err)
		assert.Contains(t, []domain.ErrorKind{domain.KindConflict, domain.KindInvalidTransition}, kind)
	}
	assert.Equal(t, 1, applied)

	stored, err := repo.FindByID(ctx, created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "PICKED", string(stored.TrackingStatus()))
	assert.Equal(t, int64(3), stored.Version())
}

func TestCreateOrder_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, repo := newOrderService(pub)

	first, err := svc.CreateOrder(ctx, customer, riceOrder(), "req-1")
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, customer, riceOrder(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, first.Data.ID, second.Data.ID)
	assert.Equal(t, first.Data.OrderNumber, second.Data.OrderNumber)

	other, err := svc.CreateOrder(ctx, customer, riceOrder(), "req-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.Data.ID, other.Data.ID)

	_, total, err := repo.FindByUserID(ctx, customer.UserID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, pub.types(), 2)
}

func TestSendGarlandReminders(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc, _ := newOrderService(pub)
	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	req := CreateOrderRequest{
		DeliveryAddress: "x",
		Items: []OrderItemRequest{{
			ProductName: "Jasmine Garland",
			UnitPrice:   decimal.NewFromInt(80),
			Weight:      decimal.NewFromInt(1),
			DeliveryAt:  "2025-01-11T12:00",
		}},
	}
	_, err := svc.CreateOrder(ctx, customer, req, "")
	require.NoError(t, err)

	_, err = svc.SendGarlandReminders(ctx, customer, 48*time.Hour)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	out, err := svc.SendGarlandReminders(ctx, admin, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReminderReport{Due: 1, Sent: 1}, out.Data)
	assert.Contains(t, pub.types(), events.OrderGarlandReminder)

	out, err = svc.SendGarlandReminders(ctx, admin, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReminderReport{Due: 0, Sent: 0}, out.Data)
}

func TestOrderStatsAndListing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(&recordingPublisher{})

	a, err := svc.CreateOrder(ctx, customer, riceOrder(), "")
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, customer, riceOrder(), "")
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(ctx, admin, a.Data.ID)
	require.NoError(t, err)

	stats, err := svc.OrderStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.ByTrackingStatus["CONFIRMED"])
	assert.Equal(t, int64(1), stats.ByTrackingStatus["PENDING"])

	mine, err := svc.ListMyOrders(ctx, customer, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)

	_, err = svc.ListAllOrders(ctx, customer, 1, 10)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	_, err = svc.GetOrder(ctx, Actor{UserID: uuid.New(), Role: auth.RoleCustomer}, a.Data.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
}

func TestTransportBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewTransportService(memory.NewTransportRepository(), decimal.NewFromInt(10), pub, cache.NewMemoryStore(), zap.NewNop())

	req := CreateTransportBookingRequest{
		CustomerName:  "Ravi",
		CustomerPhone: "9876543210",
		FromAddress:   "Warehouse 4",
		ToAddress:     "Shop 12",
		FromLat:       ptr(0),
		FromLng:       ptr(0),
		ToLat:         ptr(1),
		ToLng:         ptr(0),
	}
	created, err := svc.CreateTransportBooking(ctx, customer, req, "")
	require.NoError(t, err)
	assert.Equal(t, "BOOKED", created.Data.Status)
	assert.Equal(t, "1111.90", created.Data.ChargeAmount.StringFixed(2))

	_, err = svc.ConfirmTransportBooking(ctx, customer, created.Data.ID)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	confirmed, err := svc.ConfirmTransportBooking(ctx, admin, created.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Data.Status)

	_, err = svc.ConfirmTransportBooking(ctx, admin, created.Data.ID)
	assert.True(t, domain.IsKind(err, domain.KindAlreadyConfirmed))

	_, err = svc.CancelTransportBooking(ctx, customer, created.Data.ID, "no longer needed")
	require.NoError(t, err)
	_, err = svc.ConfirmTransportBooking(ctx, admin, created.Data.ID)
	assert.True(t, domain.IsKind(err, domain.KindAlreadyTerminal))

	assert.Equal(t, []string{events.TransportCreated, events.TransportConfirmed, events.TransportCancelled}, pub.types())
}

func TestCreateTransportBooking_Geometry(t *testing.T) {
	ctx := context.Background()
	svc := NewTransportService(memory.NewTransportRepository(), decimal.NewFromInt(10), &recordingPublisher{}, nil, zap.NewNop())

	req := CreateTransportBookingRequest{
		CustomerName: "Ravi", CustomerPhone: "1", FromAddress: "a", ToAddress: "b",
		FromLat: ptr(12.5), FromLng: ptr(77.5), ToLat: ptr(12.5), ToLng: ptr(77.5),
	}
	_, err := svc.CreateTransportBooking(ctx, customer, req, "")
	assert.True(t, domain.IsKind(err, domain.KindInvalidDistance))

	req.ToLat = ptr(95)
	_, err = svc.CreateTransportBooking(ctx, customer, req, "")
	assert.True(t, domain.IsKind(err, domain.KindInvalidGeometry))
}

func TestCreateTransportBooking_MissingCoordinate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTransportRepository()
	pub := &recordingPublisher{}
	svc := NewTransportService(repo, decimal.NewFromInt(10), pub, nil, zap.NewNop())

	req := CreateTransportBookingRequest{
		CustomerName: "Ravi", CustomerPhone: "1", FromAddress: "a", ToAddress: "b",
		FromLat: ptr(12.5), FromLng: ptr(77.5),
	}
	_, err := svc.CreateTransportBooking(ctx, customer, req, "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	req.ToLat = ptr(13)
	_, err = svc.CreateTransportBooking(ctx, customer, req, "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, total, err := repo.FindByUserID(ctx, customer.UserID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pub.types())
}

func ptr(f float64) *float64 { return &f }

func newPartyHallService(pub EventPublisher) *PartyHallService {
	return NewPartyHallService(memory.NewPartyHallRepository(), "main-hall",
		pricing.DefaultPartyHallTariff(), pub, cache.NewMemoryStore(), zap.NewNop())
}

func hallRequest(start string) CreatePartyHallBookingRequest {
	return CreatePartyHallBookingRequest{
		CustomerName:  "Meera",
		CustomerPhone: "9000000000",
		EventDate:     "2025-01-10",
		StartTime:     start,
		PersonCount:   30,
		AddOns:        []string{"decoration"},
	}
}

func TestPartyHallBooking_SlotConflictAtBoundary(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newPartyHallService(pub)

	first, err := svc.CreatePartyHallBooking(ctx, customer, hallRequest("18:00"), "")
	require.NoError(t, err)
	assert.Equal(t, "6500.00", first.Data.TotalCharge.StringFixed(2))
	assert.Equal(t, 21, first.Data.EndTime.Hour())

	_, err = svc.CreatePartyHallBooking(ctx, customer, hallRequest("20:00"), "")
	assert.True(t, domain.IsKind(err, domain.KindSlotConflict))

	_, err = svc.CreatePartyHallBooking(ctx, customer, hallRequest("21:00"), "")
	require.NoError(t, err)

	avail, err := svc.GetAvailability(ctx, "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, 180, avail.SlotDurationMinutes)
	require.Len(t, avail.BookedSlots, 2)
	assert.Equal(t, 18, avail.BookedSlots[0].Start.Hour())
	assert.Equal(t, 21, avail.BookedSlots[1].Start.Hour())

	assert.Equal(t, []string{events.PartyHallCreated, events.PartyHallCreated}, pub.types())
}

func TestPartyHallBooking_LateEveningSlotShowsOnNextDay(t *testing.T) {
	ctx := context.Background()
	svc := newPartyHallService(&recordingPublisher{})

	_, err := svc.CreatePartyHallBooking(ctx, customer, hallRequest("23:00"), "")
	require.NoError(t, err)

	avail, err := svc.GetAvailability(ctx, "2025-01-11")
	require.NoError(t, err)
	require.Len(t, avail.BookedSlots, 1)
	assert.Equal(t, time.Date(2025, 1, 11, 2, 0, 0, 0, time.UTC), avail.BookedSlots[0].End)

	nextDay := hallRequest("00:30")
	nextDay.EventDate = "2025-01-11"
	_, err = svc.CreatePartyHallBooking(ctx, customer, nextDay, "")
	assert.True(t, domain.IsKind(err, domain.KindSlotConflict))

	nextDay.StartTime = "02:00"
	_, err = svc.CreatePartyHallBooking(ctx, customer, nextDay, "")
	require.NoError(t, err)

	avail, err = svc.GetAvailability(ctx, "2025-01-11")
	require.NoError(t, err)
	assert.Len(t, avail.BookedSlots, 2)

	avail, err = svc.GetAvailability(ctx, "2025-01-12")
	require.NoError(t, err)
	assert.Empty(t, avail.BookedSlots)
}

func TestPartyHallBooking_CancelFreesSlot(t *testing.T) {
	ctx := context.Background()
	svc := newPartyHallService(&recordingPublisher{})

	first, err := svc.CreatePartyHallBooking(ctx, customer, hallRequest("10:00"), "")
	require.NoError(t, err)

	_, err = svc.CreatePartyHallBooking(ctx, customer, hallRequest("12:00"), "")
	assert.True(t, domain.IsKind(err, domain.KindSlotConflict))

	_, err = svc.CancelPartyHallBooking(ctx, customer, first.Data.ID, "date moved")
	require.NoError(t, err)

	_, err = svc.CreatePartyHallBooking(ctx, customer, hallRequest("12:00"), "")
	require.NoError(t, err)
}

func TestPartyHallBooking_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newPartyHallService(&recordingPublisher{})

	req := hallRequest("18:00")
	req.PersonCount = 0
	_, err := svc.CreatePartyHallBooking(ctx, customer, req, "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = svc.GetAvailability(ctx, "tomorrow")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
