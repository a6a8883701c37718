package dto

import "time"

type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

type CheckoutRequest struct {
	Items                []*CheckoutItem `json:"items"`
	ShippingAddressID    string          `json:"shippingAddressId"`
	BillingAddressID     string          `json:"billingAddressId,omitempty"`
	UseShippingAsBilling bool            `json:"useShippingAsBilling,omitempty"`
	IdempotencyKey       string          `json:"idempotencyKey,omitempty"`
	CouponCode           string          `json:"couponCode,omitempty"`
}

type CheckoutResponse struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type UpdateOrderStatusResponse struct {
	Message            string     `json:"message"`
	Status             string     `json:"status"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty"`
	ReturnWindowEndsAt *time.Time `json:"returnWindowEndsAt,omitempty"`
}

type RefundResponse struct {
	Message         string `json:"message"`
	OrderID         string `json:"orderId"`
	GatewayRefundID string `json:"gatewayRefundId"`
}

type OrderItemDetail struct {
	ProductID   string `json:"productId"`
	BrandID     string `json:"brandId"`
	Quantity    int32  `json:"quantity"`
	Price       int64  `json:"price"`
	Commission  int64  `json:"commission"`
	BrandAmount int64  `json:"brandAmount"`
}

type OrderDetail struct {
	OrderID            string             `json:"orderId"`
	Status             string             `json:"status"`
	TotalAmount        int64              `json:"totalAmount"`
	PlatformFee        int64              `json:"platformFee"`
	Currency           string             `json:"currency"`
	Items              []*OrderItemDetail `json:"items"`
	DeliveredAt        *time.Time         `json:"deliveredAt,omitempty"`
	ReturnWindowEndsAt *time.Time         `json:"returnWindowEndsAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}
