package service

import (
	"context"
	"testing"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundSettledOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := createPaidOrder(t, env)

	resp, err := env.refunds.Refund(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, resp.OrderID)
	assert.NotEmpty(t, resp.GatewayRefundID)

	stored := env.getOrder(t, order.OrderID)
	assert.Equal(t, model.OrderStatusRefunded, stored.Status)

	payment, err := env.paymentRepo.FindByOrderID(ctx, nil, order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, model.PaymentStatusRefunded, payment.Status)
	require.NotNil(t, payment.GatewayRefundID)
	assert.Equal(t, resp.GatewayRefundID, *payment.GatewayRefundID)
	assert.NotNil(t, payment.RefundedAt)
}

func TestRefundFromLaterLifecycleStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := createPaidOrder(t, env)

	for _, status := range []string{"PROCESSING", "SHIPPED", "DELIVERED"} {
		_, err := env.orders.UpdateStatus(ctx, adminIdent, order.OrderID, status)
		require.NoError(t, err)
	}

	_, err := env.refunds.Refund(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, env.getOrder(t, order.OrderID).Status)
}

func TestRefundAlreadyRefunded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := createPaidOrder(t, env)

	_, err := env.refunds.Refund(ctx, order.OrderID)
	require.NoError(t, err)

	_, err = env.refunds.Refund(ctx, order.OrderID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, 1, env.gateway.refundCalls)
}

func TestRefundUnpaidOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := createCheckout(t, env)

	_, err := env.refunds.Refund(ctx, order.OrderID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Equal(t, 0, env.gateway.refundCalls)
}

func TestRefundWithoutCapturedPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := createCheckout(t, env)

	// PAID order whose payment row is missing should refuse, not panic.
	env.setOrderStatus(t, order.OrderID, model.OrderStatusPaid)

	_, err := env.refunds.Refund(ctx, order.OrderID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "no captured payment")
}

func TestRefundGatewayFailureIsFailClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	order := createPaidOrder(t, env)
	env.gateway.failRefund = true

	_, err := env.refunds.Refund(ctx, order.OrderID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))

	// No local mutation without gateway confirmation.
	assert.Equal(t, model.OrderStatusPaid, env.getOrder(t, order.OrderID).Status)
	payment, err := env.paymentRepo.FindByOrderID(ctx, nil, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCaptured, payment.Status)
}
