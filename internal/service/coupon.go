package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/model"

	"gorm.io/gorm"
)

// resolveCoupon validates that a coupon code can be applied by this user:
// it must exist, belong to the user, be active and unexpired. A stale ACTIVE
// coupon past its expiry is transitioned to EXPIRED here. Exclusivity against
// other orders is re-checked inside the order-creating transaction.
func (s *checkoutServiceImpl) resolveCoupon(ctx context.Context, userID, code string) (*model.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "coupon %s not found", code)
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}

	if coupon.UserID != userID {
		return nil, apperr.New(apperr.KindForbidden, "coupon does not belong to this user")
	}
	if coupon.Status != model.CouponStatusActive {
		return nil, apperr.Newf(apperr.KindValidation, "coupon %s is not active", code)
	}
	if !coupon.ExpiresAt.After(time.Now()) {
		if err := s.couponRepo.MarkExpired(ctx, coupon.ID); err != nil {
			return nil, fmt.Errorf("expire coupon: %w", err)
		}
		return nil, apperr.Newf(apperr.KindValidation, "coupon %s has expired", code)
	}

	return coupon, nil
}
