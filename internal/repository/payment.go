package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	FindByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Payment, error)
	MarkRefunded(ctx context.Context, tx *gorm.DB, paymentID, gatewayRefundID string, refundedAt time.Time) error
}

type paymentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepositoryImpl{
		db: db,
	}
}

// Create relies on the unique index on order_id; a concurrent duplicate
// surfaces as gorm.ErrDuplicatedKey for the caller to treat as already
// settled.
func (r *paymentRepositoryImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

// FindByOrderID returns (nil, nil) when no payment exists for the order.
func (r *paymentRepositoryImpl) FindByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Payment, error) {
	db := tx
	if db == nil {
		db = r.db
	}

	var payment model.Payment
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&payment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepositoryImpl) MarkRefunded(ctx context.Context, tx *gorm.DB, paymentID, gatewayRefundID string, refundedAt time.Time) error {
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Where("status = ?", model.PaymentStatusCaptured).
		Updates(map[string]interface{}{
			"status":            model.PaymentStatusRefunded,
			"gateway_refund_id": gatewayRefundID,
			"refunded_at":       refundedAt,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
