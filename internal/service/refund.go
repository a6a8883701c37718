package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RefundService interface {
	Refund(ctx context.Context, orderID string) (*dto.RefundResponse, error)
}

type refundServiceImpl struct {
	db          *gorm.DB
	gateway     client.GatewayClient
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	logger      *zap.Logger
}

func NewRefundService(
	db *gorm.DB,
	gateway client.GatewayClient,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	logger *zap.Logger,
) RefundService {
	return &refundServiceImpl{
		db:          db,
		gateway:     gateway,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// Refund is fail-closed: nothing is marked refunded locally unless the
// gateway confirmed the refund first.
func (s *refundServiceImpl) Refund(ctx context.Context, orderID string) (*dto.RefundResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	if order.Status == model.OrderStatusRefunded {
		return nil, apperr.New(apperr.KindConflict, "order is already refunded")
	}
	if !order.Status.Refundable() {
		return nil, apperr.Newf(apperr.KindInvalidState, "order in status %s cannot be refunded", order.Status)
	}

	payment, err := s.paymentRepo.FindByOrderID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment == nil || payment.GatewayPaymentID == "" {
		return nil, apperr.New(apperr.KindInvalidState, "no captured payment to refund")
	}
	if payment.Status == model.PaymentStatusRefunded {
		return nil, apperr.New(apperr.KindConflict, "payment is already refunded")
	}

	refund, err := s.gateway.RefundPayment(ctx, payment.GatewayPaymentID, payment.Amount)
	if err != nil {
		s.logger.Error("gateway refund failed",
			zap.String("order_id", orderID),
			zap.String("gateway_payment_id", payment.GatewayPaymentID),
			zap.Error(err))
		return nil, apperr.Wrap(apperr.KindGateway, "payment gateway refund failed", err)
	}

	refundedAt := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.MarkRefunded(ctx, tx, payment.ID, refund.ID, refundedAt); err != nil {
			return fmt.Errorf("mark payment refunded: %w", err)
		}
		if err := s.orderRepo.MarkRefunded(ctx, tx, orderID); err != nil {
			return fmt.Errorf("mark order refunded: %w", err)
		}
		return nil
	})
	if err != nil {
		// Gateway already refunded; surface loudly for manual reconciliation.
		s.logger.Error("refund committed at gateway but local update failed",
			zap.String("order_id", orderID),
			zap.String("gateway_refund_id", refund.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("order refunded",
		zap.String("order_id", orderID),
		zap.String("gateway_refund_id", refund.ID))

	return &dto.RefundResponse{
		Message:         "order refunded",
		OrderID:         orderID,
		GatewayRefundID: refund.ID,
	}, nil
}
