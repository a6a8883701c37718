package handler

import (
	"io"
	"net/http"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

// SignatureHeader carries the hex HMAC of the raw webhook body.
const SignatureHeader = "X-Gateway-Signature"

type WebhookHandler struct {
	paymentService service.PaymentService
}

func NewWebhookHandler(paymentService service.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
	}
}

// Payment acknowledges every verified event, actionable or not, so the
// gateway stops retrying; only signature failures and internal errors
// deviate from {received: true}.
func (h *WebhookHandler) Payment(c echo.Context) error {
	ctx := c.Request().Context()

	// The signature is computed over the bytes actually received, so the
	// body must be read raw before any decoding.
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	sig := c.Request().Header.Get(SignatureHeader)
	if sig == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing webhook signature")
	}

	if err := h.paymentService.HandleWebhook(ctx, sig, body); err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return echo.NewHTTPError(http.StatusBadRequest, apperr.Message(err))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "webhook processing failed")
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
