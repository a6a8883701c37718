package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/signature"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testKeySecret     = "test-key-secret"
	testWebhookSecret = "test-webhook-secret"
)

// fakeGateway implements client.GatewayClient in memory.
type fakeGateway struct {
	createCalls int
	refundCalls int
	failCreate  bool
	failRefund  bool
	lastCreate  *client.CreateGatewayOrderRequest
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req *client.CreateGatewayOrderRequest) (*client.GatewayOrder, error) {
	f.createCalls++
	if f.failCreate {
		return nil, fmt.Errorf("gateway error 503: unavailable")
	}
	f.lastCreate = req
	return &client.GatewayOrder{
		ID:       fmt.Sprintf("gw_order_%d", f.createCalls),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) RefundPayment(ctx context.Context, gatewayPaymentID string, amount int64) (*client.GatewayRefund, error) {
	f.refundCalls++
	if f.failRefund {
		return nil, fmt.Errorf("gateway error 503: unavailable")
	}
	return &client.GatewayRefund{
		ID:        fmt.Sprintf("gw_refund_%d", f.refundCalls),
		PaymentID: gatewayPaymentID,
		Amount:    amount,
		Status:    "processed",
	}, nil
}

type testEnv struct {
	db      *gorm.DB
	gateway *fakeGateway

	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	couponRepo  repository.CouponRepository

	checkout CheckoutService
	payments PaymentService
	orders   OrderService
	refunds  RefundService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	gateway := &fakeGateway{}
	log := zap.NewNop()

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	checkoutCfg := config.Checkout{
		CommissionPercent: 10,
		MinimumAmount:     100,
		Currency:          "USD",
		ReturnWindowDays:  7,
	}
	gatewayCfg := config.Gateway{
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
	}

	return &testEnv{
		db:          db,
		gateway:     gateway,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		couponRepo:  couponRepo,
		checkout: NewCheckoutService(db, gateway,
			orderRepo, productRepo, couponRepo, addressRepo, checkoutCfg, log),
		payments: NewPaymentService(db,
			orderRepo, paymentRepo, couponRepo, webhookEventRepo, gatewayCfg, log),
		orders:  NewOrderService(orderRepo, checkoutCfg.ReturnWindowDays),
		refunds: NewRefundService(db, gateway, orderRepo, paymentRepo, log),
	}
}

func (e *testEnv) seedProduct(t *testing.T, id, brandID string, price int64) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Product{
		ID: id, BrandID: brandID, Name: id, Price: price, Currency: "USD",
	}).Error)
}

func (e *testEnv) seedAddress(t *testing.T, id, userID string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Address{
		ID: id, UserID: userID, Recipient: "R", Line1: "1 Main St",
		City: "Springfield", PostalCode: "12345",
	}).Error)
}

func (e *testEnv) seedCoupon(t *testing.T, coupon *model.Coupon) {
	t.Helper()
	if coupon.ID == "" {
		coupon.ID = uuid.NewString()
	}
	if coupon.Status == "" {
		coupon.Status = model.CouponStatusActive
	}
	if coupon.ExpiresAt.IsZero() {
		coupon.ExpiresAt = time.Now().Add(24 * time.Hour)
	}
	require.NoError(t, e.db.Create(coupon).Error)
}

func (e *testEnv) getOrder(t *testing.T, orderID string) *model.Order {
	t.Helper()
	var order model.Order
	require.NoError(t, e.db.Where("id = ?", orderID).First(&order).Error)
	return &order
}

func (e *testEnv) getCoupon(t *testing.T, couponID string) *model.Coupon {
	t.Helper()
	var coupon model.Coupon
	require.NoError(t, e.db.Where("id = ?", couponID).First(&coupon).Error)
	return &coupon
}

func (e *testEnv) paymentCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&model.Payment{}).Count(&count).Error)
	return count
}

func (e *testEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&count).Error)
	return count
}

func (e *testEnv) setOrderStatus(t *testing.T, orderID string, status model.OrderStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error)
}

// signedWebhookEvent builds a capture event body and its valid signature.
func signedWebhookEvent(eventID, gatewayOrderID, gatewayPaymentID string, amount int64) (string, []byte) {
	event := model.GatewayWebhookEvent{
		ID:        eventID,
		Event:     model.EventPaymentCaptured,
		CreatedAt: time.Now().Unix(),
		Payload: model.GatewayEventPayload{
			Payment: model.GatewayPaymentEntity{
				ID:             gatewayPaymentID,
				GatewayOrderID: gatewayOrderID,
				Amount:         amount,
				Currency:       "USD",
				Status:         "captured",
			},
		},
	}
	body, _ := json.Marshal(event)
	return signature.Sign(testWebhookSecret, body), body
}

func signBody(body []byte) string {
	return signature.Sign(testWebhookSecret, body)
}

func verifySignature(gatewayOrderID, gatewayPaymentID string) string {
	return signature.Sign(testKeySecret, signature.PaymentMessage(gatewayOrderID, gatewayPaymentID))
}
