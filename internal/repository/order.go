package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error)
	SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error
	HasActiveOrderForCoupon(ctx context.Context, tx *gorm.DB, couponID string) (bool, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) error
	Transition(ctx context.Context, orderID string, from, to model.OrderStatus) error
	MarkDelivered(ctx context.Context, orderID string, deliveredAt, returnWindowEndsAt time.Time) error
	MarkRefunded(ctx context.Context, tx *gorm.DB, orderID string) error
	FindOrphans(ctx context.Context, olderThan time.Time) ([]*model.Order, error)
	CancelOrphan(ctx context.Context, orderID string) error
}

// ErrStaleStatus is returned by guarded status updates when the order exists
// but is no longer in the expected source state.
var ErrStaleStatus = errors.New("order not in expected status")

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"gateway_order_id": gatewayOrderID,
			"updated_at":       time.Now(),
		}).Error
}

// HasActiveOrderForCoupon reports whether any non-terminal order already
// references the coupon. Run inside the order-creating transaction to close
// the check-then-act window on double redemption.
func (r *orderRepoImpl) HasActiveOrderForCoupon(ctx context.Context, tx *gorm.DB, couponID string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("coupon_id = ?", couponID).
		Where("status NOT IN ?", []model.OrderStatus{
			model.OrderStatusRefunded,
			model.OrderStatusCancelled,
		}).
		Count(&count).Error

	return count > 0, err
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) error {
	return r.guardedUpdate(ctx, tx, orderID,
		[]model.OrderStatus{model.OrderStatusCreated},
		map[string]interface{}{
			"status":     model.OrderStatusPaid,
			"updated_at": time.Now(),
		})
}

func (r *orderRepoImpl) Transition(ctx context.Context, orderID string, from, to model.OrderStatus) error {
	return r.guardedUpdate(ctx, r.db, orderID,
		[]model.OrderStatus{from},
		map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
}

func (r *orderRepoImpl) MarkDelivered(ctx context.Context, orderID string, deliveredAt, returnWindowEndsAt time.Time) error {
	return r.guardedUpdate(ctx, r.db, orderID,
		[]model.OrderStatus{model.OrderStatusShipped},
		map[string]interface{}{
			"status":                model.OrderStatusDelivered,
			"delivered_at":          deliveredAt,
			"return_window_ends_at": returnWindowEndsAt,
			"updated_at":            time.Now(),
		})
}

func (r *orderRepoImpl) MarkRefunded(ctx context.Context, tx *gorm.DB, orderID string) error {
	return r.guardedUpdate(ctx, tx, orderID,
		[]model.OrderStatus{
			model.OrderStatusPaid,
			model.OrderStatusProcessing,
			model.OrderStatusShipped,
			model.OrderStatusDelivered,
		},
		map[string]interface{}{
			"status":     model.OrderStatusRefunded,
			"updated_at": time.Now(),
		})
}

func (r *orderRepoImpl) FindOrphans(ctx context.Context, olderThan time.Time) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OrderStatusCreated).
		Where("gateway_order_id = ?", "").
		Where("created_at < ?", olderThan).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// CancelOrphan is guarded on both status and the empty gateway reference so
// a checkout completing concurrently with the sweep is never cancelled.
func (r *orderRepoImpl) CancelOrphan(ctx context.Context, orderID string) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Where("status = ?", model.OrderStatusCreated).
		Where("gateway_order_id = ?", "").
		Updates(map[string]interface{}{
			"status":     model.OrderStatusCancelled,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *orderRepoImpl) guardedUpdate(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus, updates map[string]interface{}) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Where("status IN ?", from).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
