package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/config"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/pricing"
	"marketplace-checkout/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutService interface {
	CreateOrder(ctx context.Context, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	db          *gorm.DB
	gateway     client.GatewayClient
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	addressRepo repository.AddressRepository
	splitter    pricing.Splitter
	cfg         config.Checkout
	logger      *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	gateway client.GatewayClient,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	addressRepo repository.AddressRepository,
	cfg config.Checkout,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:          db,
		gateway:     gateway,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		addressRepo: addressRepo,
		splitter:    pricing.NewSplitter(cfg.CommissionPercent),
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *checkoutServiceImpl) CreateOrder(ctx context.Context, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	// Idempotent replay: a retried key returns the already-created order.
	// A row without a gateway reference (earlier attempt died between the
	// local commit and the gateway call) is completed instead of duplicated.
	if req.IdempotencyKey != "" {
		existing, err := s.orderRepo.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find order by idempotency key: %w", err)
		}
		if existing != nil {
			if existing.GatewayOrderID != "" {
				return &dto.CheckoutResponse{
					OrderID:        existing.ID,
					GatewayOrderID: existing.GatewayOrderID,
					Amount:         existing.TotalAmount,
					Currency:       existing.Currency,
				}, nil
			}
			if existing.Status == model.OrderStatusCreated {
				return s.ensureGatewayOrder(ctx, existing)
			}
		}
	}

	if len(req.Items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "order must contain at least one item")
	}

	productIDs := make([]string, 0, len(req.Items))
	itemQuantityMap := make(map[string]int32)
	for _, item := range req.Items {
		if item == nil {
			return nil, apperr.New(apperr.KindValidation, "item must not be null")
		}
		if item.ProductID == "" {
			return nil, apperr.New(apperr.KindValidation, "item product id is required")
		}
		if item.Quantity < 1 {
			return nil, apperr.New(apperr.KindValidation, "item quantity must be at least 1")
		}
		if _, seen := itemQuantityMap[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		// Repeated lines for the same product merge into one.
		itemQuantityMap[item.ProductID] += item.Quantity
	}

	shippingID, billingID, err := s.resolveAddresses(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	var coupon *model.Coupon
	if req.CouponCode != "" {
		coupon, err = s.resolveCoupon(ctx, userID, req.CouponCode)
		if err != nil {
			return nil, err
		}
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get many products by item ids: %w", err)
	}
	if len(products) != len(itemQuantityMap) {
		return nil, apperr.Newf(apperr.KindNotFound,
			"unknown products: %s", strings.Join(missingProductIDs(productIDs, products), ", "))
	}

	order := &model.Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		Status:            model.OrderStatusCreated,
		Currency:          s.cfg.Currency,
		ShippingAddressID: shippingID,
		BillingAddressID:  billingID,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}

	var discountPercent int64
	if coupon != nil {
		order.CouponID = &coupon.ID
		discountPercent = coupon.DiscountPercent
	}

	orderItems := make([]*model.OrderItem, len(products))
	for i, product := range products {
		quantity := itemQuantityMap[product.ID]
		lineTotal := pricing.Discount(product.Price*int64(quantity), discountPercent)
		commission, brandAmount := s.splitter.Split(lineTotal)

		order.TotalAmount += lineTotal
		order.PlatformFee += commission

		orderItems[i] = &model.OrderItem{
			OrderID:     order.ID,
			ProductID:   product.ID,
			BrandID:     product.BrandID,
			Quantity:    quantity,
			Price:       lineTotal,
			Commission:  commission,
			BrandAmount: brandAmount,
			Currency:    product.Currency,
		}
	}

	if order.TotalAmount < s.cfg.MinimumAmount {
		return nil, apperr.Newf(apperr.KindValidation,
			"order total %d is below the minimum chargeable amount %d", order.TotalAmount, s.cfg.MinimumAmount)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if coupon != nil {
			// Re-checked inside the transaction to close the window between
			// coupon validation and order commit.
			bound, err := s.orderRepo.HasActiveOrderForCoupon(ctx, tx, coupon.ID)
			if err != nil {
				return fmt.Errorf("check coupon binding: %w", err)
			}
			if bound {
				return apperr.Newf(apperr.KindConflict, "coupon %s is already applied to another order", coupon.Code)
			}
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errIdempotencyKeyTaken
			}
			return fmt.Errorf("store order in db: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}
		return nil
	})
	if errors.Is(err, errIdempotencyKeyTaken) {
		// A concurrent checkout with the same key won the insert; hand the
		// caller the winner's order instead of a conflict.
		return s.replayByIdempotencyKey(ctx, userID, req.IdempotencyKey)
	}
	if err != nil {
		return nil, err
	}

	return s.ensureGatewayOrder(ctx, order)
}

// errIdempotencyKeyTaken signals that the order insert hit the user+key
// unique index. Only the idempotency index can raise a duplicate here: the
// order id is a fresh uuid.
var errIdempotencyKeyTaken = errors.New("idempotency key taken")

func (s *checkoutServiceImpl) replayByIdempotencyKey(ctx context.Context, userID, key string) (*dto.CheckoutResponse, error) {
	winner, err := s.orderRepo.FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindConflict, "idempotency key already used")
		}
		return nil, fmt.Errorf("find order by idempotency key: %w", err)
	}
	if winner.GatewayOrderID != "" {
		return &dto.CheckoutResponse{
			OrderID:        winner.ID,
			GatewayOrderID: winner.GatewayOrderID,
			Amount:         winner.TotalAmount,
			Currency:       winner.Currency,
		}, nil
	}
	if winner.Status == model.OrderStatusCreated {
		return s.ensureGatewayOrder(ctx, winner)
	}
	// The key belongs to a swept order; it stays burned.
	return nil, apperr.New(apperr.KindConflict, "idempotency key already used")
}

// ensureGatewayOrder creates the remote gateway order for a committed local
// order and persists the returned reference. A gateway failure here leaves a
// CREATED row with no reference; the orphan sweep reclaims it if never retried.
func (s *checkoutServiceImpl) ensureGatewayOrder(ctx context.Context, order *model.Order) (*dto.CheckoutResponse, error) {
	gatewayOrder, err := s.gateway.CreateOrder(ctx, &client.CreateGatewayOrderRequest{
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Receipt:  order.ID,
	})
	if err != nil {
		s.logger.Error("gateway order creation failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, apperr.Wrap(apperr.KindGateway, "payment gateway unavailable", err)
	}

	if err := s.orderRepo.SetGatewayOrderID(ctx, order.ID, gatewayOrder.ID); err != nil {
		return nil, fmt.Errorf("persist gateway order id: %w", err)
	}

	return &dto.CheckoutResponse{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
	}, nil
}

func (s *checkoutServiceImpl) resolveAddresses(ctx context.Context, userID string, req *dto.CheckoutRequest) (string, string, error) {
	if req.ShippingAddressID == "" {
		return "", "", apperr.New(apperr.KindValidation, "shipping address id is required")
	}

	shipping, err := s.addressRepo.FindByID(ctx, req.ShippingAddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apperr.New(apperr.KindValidation, "shipping address not found")
		}
		return "", "", fmt.Errorf("find shipping address: %w", err)
	}
	if shipping.UserID != userID {
		return "", "", apperr.New(apperr.KindValidation, "shipping address does not belong to user")
	}

	if req.UseShippingAsBilling || req.BillingAddressID == "" {
		return shipping.ID, shipping.ID, nil
	}

	billing, err := s.addressRepo.FindByID(ctx, req.BillingAddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apperr.New(apperr.KindValidation, "billing address not found")
		}
		return "", "", fmt.Errorf("find billing address: %w", err)
	}
	if billing.UserID != userID {
		return "", "", apperr.New(apperr.KindValidation, "billing address does not belong to user")
	}

	return shipping.ID, billing.ID, nil
}

func missingProductIDs(requested []string, found []*model.Product) []string {
	known := make(map[string]bool, len(found))
	for _, p := range found {
		known[p.ID] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, id := range requested {
		if !known[id] && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	return missing
}
