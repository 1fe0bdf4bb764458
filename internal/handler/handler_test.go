package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/application"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/auth"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/cache"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/kafka"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/response"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/repository/memory"
	"github.com/shopspring/decimal"
)

type switchPublisher struct {
	mu   sync.Mutex
	fail bool
}

func (p *switchPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func (p *switchPublisher) setFail(v bool) {
	p.mu.Lock()
	p.fail = v
	p.mu.Unlock()
}

type testEnv struct {
	router        *gin.Engine
	publisher     *switchPublisher
	notifications *memory.NotificationRepository
	customerID    uuid.UUID
	customerToken string
	adminToken    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour, time.Hour)
	pub := &switchPublisher{}
	store := cache.NewMemoryStore()
	log := zap.NewNop()

	orders := application.NewOrderService(memory.NewOrderRepository(), pub, store, log)
	transport := application.NewTransportService(memory.NewTransportRepository(), decimal.NewFromInt(10), pub, store, log)
	hall := application.NewPartyHallService(memory.NewPartyHallRepository(), "main-hall", pricing.DefaultPartyHallTariff(), pub, store, log)
	notificationRepo := memory.NewNotificationRepository()
	notifications := application.NewNotificationService(notificationRepo)

	router := gin.New()
	NewOrderHandler(orders).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewTransportHandler(transport).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewPartyHallHandler(hall).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewNotificationHandler(notifications).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewAdminHandler(orders, transport).RegisterRoutes(&router.RouterGroup, jwtManager)

	customerID := uuid.New()
	customerToken, err := jwtManager.GenerateAccessToken(customerID, auth.RoleCustomer, "asha@example.com", "Asha")
	require.NoError(t, err)
	adminToken, err := jwtManager.GenerateAccessToken(uuid.New(), auth.RoleAdmin, "ops@example.com", "Ops")
	require.NoError(t, err)

	return &testEnv{
		router:        router,
		publisher:     pub,
		notifications: notificationRepo,
		customerID:    customerID,
		customerToken: customerToken,
		adminToken:    adminToken,
	}
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorBody `json:"error"`
	Warning *response.ErrorBody `json:"warning"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func orderBody() gin.H {
	return gin.H{
		"customer_name":    "Asha",
		"delivery_address": "12 MG Road",
		"items": []gin.H{{
			"product_name": "Basmati Rice",
			"category":     "grocery",
			"unit_price":   90,
			"weight":       5,
		}},
	}
}

func createOrder(t *testing.T, env *testEnv) application.OrderDTO {
	t.Helper()
	code, res := env.do(t, http.MethodPost, "/api/v1/orders", env.customerToken, orderBody())
	require.Equal(t, http.StatusCreated, code)
	var dto application.OrderDTO
	require.NoError(t, json.Unmarshal(res.Data, &dto))
	return dto
}

func TestOrderRoutes_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	dto := createOrder(t, env)
	assert.Equal(t, "PENDING", dto.TrackingStatus)

	code, res := env.do(t, http.MethodPost, "/api/v1/admin/orders/"+dto.ID.String()+"/confirm", env.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, res.Warning)

	code, res = env.do(t, http.MethodPost, "/api/v1/admin/orders/"+dto.ID.String()+"/status", env.adminToken, gin.H{"status": "PICKED"})
	require.Equal(t, http.StatusOK, code)
	var advanced application.OrderDTO
	require.NoError(t, json.Unmarshal(res.Data, &advanced))
	assert.Equal(t, "PICKED", advanced.TrackingStatus)

	code, res = env.do(t, http.MethodPost, "/api/v1/admin/orders/"+dto.ID.String()+"/status", env.adminToken, gin.H{"status": "DELIVERED"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_TRANSITION", string(res.Error.Kind))

	code, _ = env.do(t, http.MethodGet, "/api/v1/orders/"+dto.ID.String(), env.customerToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestOrderRoutes_AuthAndValidation(t *testing.T) {
	env := newTestEnv(t)

	code, res := env.do(t, http.MethodPost, "/api/v1/orders", "", orderBody())
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", string(res.Error.Kind))

	dto := createOrder(t, env)
	code, res = env.do(t, http.MethodPost, "/api/v1/admin/orders/"+dto.ID.String()+"/confirm", env.customerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", string(res.Error.Kind))

	code, _ = env.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", env.customerToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = env.do(t, http.MethodPost, "/api/v1/orders", env.customerToken, gin.H{
		"delivery_address": "12 MG Road",
		"items":            []gin.H{},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "EMPTY_ORDER", string(res.Error.Kind))

	code, res = env.do(t, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), env.customerToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", string(res.Error.Kind))
}

func TestOrderRoutes_DispatchFailureIsAWarning(t *testing.T) {
	env := newTestEnv(t)
	dto := createOrder(t, env)

	env.publisher.setFail(true)
	code, res := env.do(t, http.MethodPost, "/api/v1/admin/orders/"+dto.ID.String()+"/confirm", env.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.Success)
	require.NotNil(t, res.Warning)
	assert.Equal(t, "NOTIFICATION_ERROR", string(res.Warning.Kind))

	env.publisher.setFail(false)
	code, res = env.do(t, http.MethodPost, "/api/v1/admin/orders/"+dto.ID.String()+"/confirm", env.adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_TRANSITION", string(res.Error.Kind))
}

func TestOrderRoutes_CustomerCancel(t *testing.T) {
	env := newTestEnv(t)
	dto := createOrder(t, env)

	code, res := env.do(t, http.MethodPost, "/api/v1/orders/"+dto.ID.String()+"/cancel", env.customerToken, gin.H{"reason": "changed my mind"})
	require.Equal(t, http.StatusOK, code)
	var cancelled application.OrderDTO
	require.NoError(t, json.Unmarshal(res.Data, &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.TrackingStatus)

	code, res = env.do(t, http.MethodPost, "/api/v1/orders/"+dto.ID.String()+"/cancel", env.customerToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", string(res.Error.Kind))

	code, res = env.do(t, http.MethodPost, "/api/v1/orders/"+dto.ID.String()+"/cancel", env.customerToken, gin.H{"reason": "again"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_TERMINAL", string(res.Error.Kind))
}

func TestPartyHallRoutes(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodGet, "/api/v1/party-hall/availability", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	booking := gin.H{
		"customer_name":  "Ravi",
		"customer_phone": "9876543210",
		"event_date":     "2030-05-01",
		"start_time":     "10:00",
		"person_count":   20,
	}
	code, _ = env.do(t, http.MethodPost, "/api/v1/party-hall/bookings", env.customerToken, booking)
	require.Equal(t, http.StatusCreated, code)

	booking["start_time"] = "12:00"
	code, res := env.do(t, http.MethodPost, "/api/v1/party-hall/bookings", env.customerToken, booking)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "SLOT_CONFLICT", string(res.Error.Kind))

	code, res = env.do(t, http.MethodGet, "/api/v1/party-hall/availability?date=2030-05-01", "", nil)
	require.Equal(t, http.StatusOK, code)
	var availability application.AvailabilityDTO
	require.NoError(t, json.Unmarshal(res.Data, &availability))
	assert.Len(t, availability.BookedSlots, 1)
}

func TestTransportRoutes(t *testing.T) {
	env := newTestEnv(t)

	body := gin.H{
		"customer_name":  "Meena",
		"customer_phone": "9000000001",
		"from_address":   "Warehouse",
		"to_address":     "Shop",
		"from_lat":       12.0,
		"from_lng":       77.0,
		"to_lat":         13.0,
		"to_lng":         77.0,
	}
	code, res := env.do(t, http.MethodPost, "/api/v1/transport-bookings", env.customerToken, body)
	require.Equal(t, http.StatusCreated, code)
	var dto application.TransportBookingDTO
	require.NoError(t, json.Unmarshal(res.Data, &dto))

	code, _ = env.do(t, http.MethodPost, "/api/v1/admin/transport-bookings/"+dto.ID.String()+"/confirm", env.adminToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, res = env.do(t, http.MethodPost, "/api/v1/admin/transport-bookings/"+dto.ID.String()+"/confirm", env.adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_CONFIRMED", string(res.Error.Kind))

	body["to_lat"] = 12.0
	code, res = env.do(t, http.MethodPost, "/api/v1/transport-bookings", env.customerToken, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_DISTANCE", string(res.Error.Kind))

	// A drop point left out of the body is rejected, not read as (0, 0).
	delete(body, "to_lat")
	delete(body, "to_lng")
	code, res = env.do(t, http.MethodPost, "/api/v1/transport-bookings", env.customerToken, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", string(res.Error.Kind))

	// Zero is still a valid coordinate when it is sent.
	body["from_lat"], body["from_lng"], body["to_lat"], body["to_lng"] = 0.0, 0.0, 1.0, 0.0
	code, _ = env.do(t, http.MethodPost, "/api/v1/transport-bookings", env.customerToken, body)
	assert.Equal(t, http.StatusCreated, code)
}

func TestAdminRoutes_GarlandRemindersAndStats(t *testing.T) {
	env := newTestEnv(t)
	createOrder(t, env)

	code, res := env.do(t, http.MethodPost, "/api/v1/admin/garland-reminders", env.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	var report application.ReminderReport
	require.NoError(t, json.Unmarshal(res.Data, &report))
	assert.Equal(t, 0, report.Due)

	code, res = env.do(t, http.MethodGet, "/api/v1/admin/stats/orders", env.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	var stats application.OrderStatsDTO
	require.NoError(t, json.Unmarshal(res.Data, &stats))
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.ByTrackingStatus["PENDING"])
}

func TestNotificationRoutes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	n, err := notification.New(env.customerID, "Your order OD-ABC234 has been confirmed")
	require.NoError(t, err)
	require.NoError(t, env.notifications.Save(ctx, n))

	code, res := env.do(t, http.MethodGet, "/api/v1/notifications", env.customerToken, nil)
	require.Equal(t, http.StatusOK, code)
	var list []application.NotificationDTO
	require.NoError(t, json.Unmarshal(res.Data, &list))
	require.Len(t, list, 1)
	assert.False(t, list[0].IsRead)

	// Another user's notification is invisible.
	code, res = env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/read", env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", string(res.Error.Kind))

	code, _ = env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID.String()+"/read", env.customerToken, nil)
	require.Equal(t, http.StatusOK, code)

	_, res = env.do(t, http.MethodGet, "/api/v1/notifications", env.customerToken, nil)
	require.NoError(t, json.Unmarshal(res.Data, &list))
	assert.True(t, list[0].IsRead)

	code, _ = env.do(t, http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
