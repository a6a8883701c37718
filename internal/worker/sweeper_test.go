package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, id, gatewayOrderID string, status model.OrderStatus, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Create(&model.Order{
		ID:                id,
		UserID:            "user-1",
		Status:            status,
		TotalAmount:       1000,
		Currency:          "USD",
		ShippingAddressID: "addr-1",
		BillingAddressID:  "addr-1",
		GatewayOrderID:    gatewayOrderID,
		CreatedAt:         time.Now().Add(-age),
	}).Error)
}

func TestSweepCancelsOnlyStaleGatewaylessOrders(t *testing.T) {
	db := newTestDB(t)
	orderRepo := repository.NewOrderRepository(db)

	seedOrder(t, db, "stale-orphan", "", model.OrderStatusCreated, 2*time.Hour)
	seedOrder(t, db, "fresh-orphan", "", model.OrderStatusCreated, time.Minute)
	seedOrder(t, db, "has-gateway", "gw_order_1", model.OrderStatusCreated, 2*time.Hour)
	seedOrder(t, db, "already-paid", "gw_order_2", model.OrderStatusPaid, 2*time.Hour)

	sweeper := NewOrphanSweeper(orderRepo, time.Minute, time.Hour, zap.NewNop())
	cancelled, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	status := func(id string) model.OrderStatus {
		var order model.Order
		require.NoError(t, db.Where("id = ?", id).First(&order).Error)
		return order.Status
	}
	assert.Equal(t, model.OrderStatusCancelled, status("stale-orphan"))
	assert.Equal(t, model.OrderStatusCreated, status("fresh-orphan"))
	assert.Equal(t, model.OrderStatusCreated, status("has-gateway"))
	assert.Equal(t, model.OrderStatusPaid, status("already-paid"))
}

func TestSweepIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	orderRepo := repository.NewOrderRepository(db)

	seedOrder(t, db, "stale-orphan", "", model.OrderStatusCreated, 2*time.Hour)

	sweeper := NewOrphanSweeper(orderRepo, time.Minute, time.Hour, zap.NewNop())

	cancelled, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	cancelled, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cancelled)
}
