package model

// Wire types for events pushed by the payment gateway. The webhook signature
// is computed over the raw request bytes, so these are only unmarshalled
// after verification.

type GatewayPaymentEntity struct {
	ID             string `json:"id"`
	GatewayOrderID string `json:"order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	Method         string `json:"method"`
}

type GatewayEventPayload struct {
	Payment GatewayPaymentEntity `json:"payment"`
}

type GatewayWebhookEvent struct {
	ID        string              `json:"id"`
	Event     string              `json:"event"`
	CreatedAt int64               `json:"created_at"`
	Payload   GatewayEventPayload `json:"payload"`
}

// EventPaymentCaptured is the only event type the confirmation handler acts
// on; everything else is acknowledged and ignored.
const EventPaymentCaptured = "payment.captured"
