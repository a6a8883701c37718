package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"
	"marketplace-checkout/internal/signature"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService converges the two payment-confirmation paths (browser
// redirect verification and gateway webhook) onto exactly one Payment row
// and one CREATED→PAID flip per order.
type PaymentService interface {
	VerifyPayment(ctx context.Context, userID string, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)
	HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error
}

type paymentServiceImpl struct {
	db               *gorm.DB
	orderRepo        repository.OrderRepository
	paymentRepo      repository.PaymentRepository
	couponRepo       repository.CouponRepository
	webhookEventRepo repository.WebhookEventRepository
	gatewayCfg       config.Gateway
	logger           *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	couponRepo repository.CouponRepository,
	webhookEventRepo repository.WebhookEventRepository,
	gatewayCfg config.Gateway,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		orderRepo:        orderRepo,
		paymentRepo:      paymentRepo,
		couponRepo:       couponRepo,
		webhookEventRepo: webhookEventRepo,
		gatewayCfg:       gatewayCfg,
		logger:           logger,
	}
}

func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, userID string, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, apperr.New(apperr.KindValidation, "gatewayOrderId, gatewayPaymentId and signature are required")
	}

	order, err := s.orderRepo.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("find order by gateway order id: %w", err)
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.KindForbidden, "order does not belong to this user")
	}

	message := signature.PaymentMessage(req.GatewayOrderID, req.GatewayPaymentID)
	if !signature.Verify(s.gatewayCfg.KeySecret, message, req.Signature) {
		return nil, apperr.New(apperr.KindValidation, "invalid payment signature")
	}

	if _, err := s.settle(ctx, order, req.GatewayPaymentID, order.TotalAmount); err != nil {
		return nil, err
	}

	return &dto.VerifyPaymentResponse{
		Success: true,
		OrderID: order.ID,
	}, nil
}

// HandleWebhook processes a gateway push event. The signature covers the raw
// request bytes. Events that are not actionable (duplicate, wrong type,
// unknown order, amount mismatch) are acknowledged without error so the
// gateway's at-least-once retries stop.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, signatureHeader string, body []byte) error {
	if !signature.Verify(s.gatewayCfg.WebhookSecret, body, signatureHeader) {
		return apperr.New(apperr.KindValidation, "invalid webhook signature")
	}

	var event model.GatewayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed webhook payload", err)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		s.logger.Info("webhook event already processed",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Event))
		return nil
	}

	if event.Event != model.EventPaymentCaptured {
		s.logger.Info("ignoring webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Event))
		return s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Event)
	}

	payment := event.Payload.Payment
	order, err := s.orderRepo.FindByGatewayOrderID(ctx, payment.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("webhook for unknown order",
				zap.String("event_id", event.ID),
				zap.String("gateway_order_id", payment.GatewayOrderID))
			return s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Event)
		}
		return fmt.Errorf("find order by gateway order id: %w", err)
	}

	if payment.Amount != order.TotalAmount && order.Status != model.OrderStatusPaid {
		s.logger.Error("webhook amount mismatch",
			zap.String("event_id", event.ID),
			zap.String("order_id", order.ID),
			zap.Int64("event_amount", payment.Amount),
			zap.Int64("order_amount", order.TotalAmount))
		return s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Event)
	}

	already, err := s.settle(ctx, order, payment.ID, payment.Amount)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInvalidState {
			// e.g. a cancelled orphan that somehow got charged; keep the ack
			// but leave a loud trace for reconciliation.
			s.logger.Error("webhook for unsettleable order",
				zap.String("event_id", event.ID),
				zap.String("order_id", order.ID),
				zap.String("order_status", string(order.Status)),
				zap.Error(err))
			return s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Event)
		}
		return err
	}

	if already {
		s.logger.Info("webhook arrived after payment already settled",
			zap.String("event_id", event.ID),
			zap.String("order_id", order.ID))
	} else {
		s.logger.Info("order settled via webhook",
			zap.String("event_id", event.ID),
			zap.String("order_id", order.ID))
	}

	return s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Event)
}

var errAlreadySettled = errors.New("payment already settled")

// settle performs the single-winner confirmation: read-then-insert the
// Payment under its order-id uniqueness constraint, flip the order to PAID
// and redeem any bound coupon, all in one transaction. Both a pre-existing
// row and a lost insert race report (true, nil) so either path can return
// the idempotent "already satisfied" success.
func (s *paymentServiceImpl) settle(ctx context.Context, order *model.Order, gatewayPaymentID string, amount int64) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.paymentRepo.FindByOrderID(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		if existing != nil {
			return errAlreadySettled
		}

		payment := &model.Payment{
			ID:               uuid.NewString(),
			OrderID:          order.ID,
			Status:           model.PaymentStatusCaptured,
			GatewayPaymentID: gatewayPaymentID,
			Amount:           amount,
			PaidAt:           time.Now(),
		}
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race against the other confirmation path.
				return errAlreadySettled
			}
			return fmt.Errorf("create payment: %w", err)
		}

		if err := s.orderRepo.MarkPaid(ctx, tx, order.ID); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) {
				return apperr.Newf(apperr.KindInvalidState, "order %s is not awaiting payment", order.ID)
			}
			return fmt.Errorf("mark order paid: %w", err)
		}

		if order.CouponID != nil {
			if err := s.couponRepo.MarkUsed(ctx, tx, *order.CouponID); err != nil {
				return fmt.Errorf("mark coupon used: %w", err)
			}
		}

		return nil
	})

	if errors.Is(err, errAlreadySettled) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}
