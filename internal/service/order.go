package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/auth"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/repository"

	"gorm.io/gorm"
)

type OrderService interface {
	UpdateStatus(ctx context.Context, ident auth.Identity, orderID string, requested string) (*dto.UpdateOrderStatusResponse, error)
	GetOrder(ctx context.Context, ident auth.Identity, orderID string) (*dto.OrderDetail, error)
}

type orderServiceImpl struct {
	orderRepo        repository.OrderRepository
	returnWindowDays int
}

func NewOrderService(orderRepo repository.OrderRepository, returnWindowDays int) OrderService {
	return &orderServiceImpl{
		orderRepo:        orderRepo,
		returnWindowDays: returnWindowDays,
	}
}

// requestableStatuses are the fulfilment moves callers may ask for. PAID,
// REFUNDED and CANCELLED are owned by the confirmation handler, the refund
// processor and the orphan sweep respectively.
var requestableStatuses = map[model.OrderStatus]bool{
	model.OrderStatusProcessing: true,
	model.OrderStatusShipped:    true,
	model.OrderStatusDelivered:  true,
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, ident auth.Identity, orderID string, requested string) (*dto.UpdateOrderStatusResponse, error) {
	next := model.OrderStatus(requested)
	if !requestableStatuses[next] {
		return nil, apperr.New(apperr.KindValidation, "status must be one of PROCESSING, SHIPPED, DELIVERED")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeFulfilment(ctx, ident, order); err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, apperr.Newf(apperr.KindInvalidState,
			"cannot move order from %s to %s (allowed: %v)", order.Status, next, order.Status.AllowedTransitions())
	}

	resp := &dto.UpdateOrderStatusResponse{
		Message: fmt.Sprintf("order moved to %s", next),
		Status:  string(next),
	}

	if next == model.OrderStatusDelivered {
		deliveredAt := time.Now()
		windowEnd := deliveredAt.AddDate(0, 0, s.returnWindowDays)
		if err := s.orderRepo.MarkDelivered(ctx, orderID, deliveredAt, windowEnd); err != nil {
			return nil, s.transitionError(err, order.Status, next)
		}
		resp.DeliveredAt = &deliveredAt
		resp.ReturnWindowEndsAt = &windowEnd
		return resp, nil
	}

	if err := s.orderRepo.Transition(ctx, orderID, order.Status, next); err != nil {
		return nil, s.transitionError(err, order.Status, next)
	}
	return resp, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, ident auth.Identity, orderID string) (*dto.OrderDetail, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}

	if err := s.authorizeRead(ident, order, items); err != nil {
		return nil, err
	}

	detail := &dto.OrderDetail{
		OrderID:            order.ID,
		Status:             string(order.Status),
		TotalAmount:        order.TotalAmount,
		PlatformFee:        order.PlatformFee,
		Currency:           order.Currency,
		DeliveredAt:        order.DeliveredAt,
		ReturnWindowEndsAt: order.ReturnWindowEndsAt,
		CreatedAt:          order.CreatedAt,
	}
	for _, item := range items {
		detail.Items = append(detail.Items, &dto.OrderItemDetail{
			ProductID:   item.ProductID,
			BrandID:     item.BrandID,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Commission:  item.Commission,
			BrandAmount: item.BrandAmount,
		})
	}

	return detail, nil
}

func (s *orderServiceImpl) loadOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

// authorizeFulfilment allows admins, and brand callers with at least one
// line in the order.
func (s *orderServiceImpl) authorizeFulfilment(ctx context.Context, ident auth.Identity, order *model.Order) error {
	if ident.Role == auth.RoleAdmin {
		return nil
	}
	if ident.Role != auth.RoleBrand || ident.BrandID == "" {
		return apperr.New(apperr.KindForbidden, "only the fulfilling brand or an admin may update order status")
	}

	items, err := s.orderRepo.GetOrderItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	for _, item := range items {
		if item.BrandID == ident.BrandID {
			return nil
		}
	}
	return apperr.New(apperr.KindForbidden, "order has no items for this brand")
}

func (s *orderServiceImpl) authorizeRead(ident auth.Identity, order *model.Order, items []*model.OrderItem) error {
	switch ident.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleBrand:
		for _, item := range items {
			if item.BrandID == ident.BrandID && ident.BrandID != "" {
				return nil
			}
		}
	default:
		if order.UserID == ident.UserID {
			return nil
		}
	}
	return apperr.New(apperr.KindForbidden, "not allowed to view this order")
}

func (s *orderServiceImpl) transitionError(err error, from, to model.OrderStatus) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		// Lost a concurrent transition; report it like any other bad move.
		return apperr.Newf(apperr.KindInvalidState, "cannot move order from %s to %s", from, to)
	}
	return fmt.Errorf("transition order: %w", err)
}
