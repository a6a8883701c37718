package repository

import (
	"context"
	"time"

	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	MarkUsed(ctx context.Context, tx *gorm.DB, couponID string) error
	MarkExpired(ctx context.Context, couponID string) error
}

type couponRepoImpl struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepoImpl{
		db: db,
	}
}

func (r *couponRepoImpl) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&coupon).Error

	if err != nil {
		return nil, err
	}

	return &coupon, nil
}

// MarkUsed runs inside the payment-settlement transaction so the coupon
// flips exactly once, together with the order reaching PAID.
func (r *couponRepoImpl) MarkUsed(ctx context.Context, tx *gorm.DB, couponID string) error {
	return tx.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ?", couponID).
		Where("status = ?", model.CouponStatusActive).
		Updates(map[string]interface{}{
			"status":     model.CouponStatusUsed,
			"updated_at": time.Now(),
		}).Error
}

func (r *couponRepoImpl) MarkExpired(ctx context.Context, couponID string) error {
	return r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ?", couponID).
		Where("status = ?", model.CouponStatusActive).
		Updates(map[string]interface{}{
			"status":     model.CouponStatusExpired,
			"updated_at": time.Now(),
		}).Error
}
