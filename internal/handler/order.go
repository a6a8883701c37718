package handler

import (
	"net/http"

	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService  service.OrderService
	refundService service.RefundService
}

func NewOrderHandler(orderService service.OrderService, refundService service.RefundService) *OrderHandler {
	return &OrderHandler{
		orderService:  orderService,
		refundService: refundService,
	}
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	ident, err := identity(c)
	if err != nil {
		return err
	}

	result, err := h.orderService.GetOrder(ctx, ident, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	ident, err := identity(c)
	if err != nil {
		return err
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.orderService.UpdateStatus(ctx, ident, c.Param("id"), req.Status)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.refundService.Refund(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}
