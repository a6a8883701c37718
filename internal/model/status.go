package model

type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "CREATED"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
	// Assigned only by the orphan sweeper to CREATED orders that never
	// reached the gateway. Not part of the fulfilment lifecycle.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// fulfilmentTransitions is the only place a lifecycle move is legal.
// REFUNDED is reachable from any post-PAID state, but only through the
// refund processor, so it is deliberately absent here.
var fulfilmentTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPaid:       {OrderStatusProcessing},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range fulfilmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) AllowedTransitions() []OrderStatus {
	return fulfilmentTransitions[s]
}

// Refundable reports whether the refund processor may act on an order in
// this state: any post-PAID state that is not already refunded.
func (s OrderStatus) Refundable() bool {
	switch s {
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Terminal reports whether an order no longer binds resources such as its
// coupon. DELIVERED is terminal-success for fulfilment but still holds its
// coupon, so it is not terminal here.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusRefunded || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type CouponStatus string

const (
	CouponStatusActive  CouponStatus = "ACTIVE"
	CouponStatusUsed    CouponStatus = "USED"
	CouponStatusExpired CouponStatus = "EXPIRED"
)
