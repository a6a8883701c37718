package server

import (
	"marketplace-checkout/internal/auth"
	"marketplace-checkout/internal/handler"
	"marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/service"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	webhookHandler  *handler.WebhookHandler
	jwtSecret       string
}

func NewServer(
	checkoutService service.CheckoutService,
	paymentService service.PaymentService,
	orderService service.OrderService,
	refundService service.RefundService,
	jwtSecret string,
) *Server {
	e := echo.New()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService, paymentService),
		orderHandler:    handler.NewOrderHandler(orderService, refundService),
		webhookHandler:  handler.NewWebhookHandler(paymentService),
		jwtSecret:       jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Gateway-to-server only; authenticated by body signature, not session.
	s.echo.POST("/webhooks/payment", s.webhookHandler.Payment)

	authMW := middleware.Auth(s.jwtSecret)

	checkout := s.echo.Group("/checkout", authMW)
	checkout.POST("/create", s.checkoutHandler.Create)
	checkout.POST("/verify", s.checkoutHandler.Verify)

	orders := s.echo.Group("/orders", authMW)
	orders.GET("/:id", s.orderHandler.Get)
	orders.PATCH("/:id", s.orderHandler.UpdateStatus,
		middleware.RequireRole(auth.RoleBrand, auth.RoleAdmin))
	orders.POST("/:id/refund", s.orderHandler.Refund,
		middleware.RequireRole(auth.RoleAdmin))
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
