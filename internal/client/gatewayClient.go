package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"marketplace-checkout/internal/config"
)

// GatewayClient talks to the external payment provider. Services inject it
// so tests can substitute a fake.
type GatewayClient interface {
	CreateOrder(ctx context.Context, req *CreateGatewayOrderRequest) (*GatewayOrder, error)
	RefundPayment(ctx context.Context, gatewayPaymentID string, amount int64) (*GatewayRefund, error)
}

type CreateGatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type GatewayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type gatewayClientImpl struct {
	httpClient *http.Client
	baseAPIURL string
	keyID      string
	keySecret  string
}

func NewGatewayClient(gatewayCfg *config.Gateway) GatewayClient {
	return &gatewayClientImpl{
		httpClient: &http.Client{
			Timeout: gatewayCfg.Timeout,
		},
		baseAPIURL: gatewayCfg.BaseAPIURL,
		keyID:      gatewayCfg.KeyID,
		keySecret:  gatewayCfg.KeySecret,
	}
}

func (c *gatewayClientImpl) CreateOrder(ctx context.Context, req *CreateGatewayOrderRequest) (*GatewayOrder, error) {
	var order GatewayOrder
	if err := c.post(ctx, "/v1/orders", req, &order); err != nil {
		return nil, fmt.Errorf("gateway create order: %w", err)
	}
	return &order, nil
}

func (c *gatewayClientImpl) RefundPayment(ctx context.Context, gatewayPaymentID string, amount int64) (*GatewayRefund, error) {
	path := fmt.Sprintf("/v1/payments/%s/refund", gatewayPaymentID)
	payload := map[string]int64{"amount": amount}

	var refund GatewayRefund
	if err := c.post(ctx, path, payload, &refund); err != nil {
		return nil, fmt.Errorf("gateway refund payment: %w", err)
	}
	return &refund, nil
}

func (c *gatewayClientImpl) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseAPIURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}

	return nil
}
