package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/order-management/docs"
	"github.com/99minutos/order-management/internal/api/handler"
	"github.com/99minutos/order-management/internal/api/middleware"
	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// Dependencies is everything the HTTP layer needs from the core.
type Dependencies struct {
	Log      zerolog.Logger
	Verifier ports.TokenVerifier
	Auth     ports.AuthService
	Orders   ports.OrderService
	Users    ports.UserService
	Stats    ports.StatsService
	// Health maps dependency names to readiness probes.
	Health map[string]handler.Pinger

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "orders",
		Subsystem:  "http",
		Registerer: deps.Registerer,
	}))

	authn := middleware.Auth(deps.Verifier)
	admin := middleware.RequireRole(domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/register-admin", authHandler.RegisterAdmin, middleware.OptionalAuth(deps.Verifier))
	auth.POST("/create-admin", authHandler.RegisterAdmin, authn, admin)
	auth.GET("/me", authHandler.Me, authn)

	// --- Order routes ---
	orderHandler := handler.NewOrderHandler(deps.Orders)
	orders := e.Group("/api/orders", authn)
	orders.POST("", orderHandler.Create)
	orders.GET("/my-orders", orderHandler.ListMine)
	orders.GET("/:id", orderHandler.Get)
	orders.PUT("/:id", orderHandler.Modify)
	orders.DELETE("/:id/cancel", orderHandler.Cancel)
	orders.GET("/:id/history", orderHandler.History)
	orders.GET("", orderHandler.ListAll, admin)
	orders.GET("/status/:status", orderHandler.ListByStatus, admin)
	orders.GET("/search", orderHandler.Search, admin)
	orders.PATCH("/:id/status", orderHandler.SetStatus, admin)
	orders.DELETE("/:id", orderHandler.Delete, admin)

	// --- User administration ---
	userHandler := handler.NewUserHandler(deps.Users)
	users := e.Group("/api/users", authn, admin)
	users.GET("", userHandler.List)
	users.GET("/active", userHandler.ListActive)
	users.GET("/search", userHandler.Search)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Deactivate)
	users.DELETE("/:id/permanent", userHandler.DeletePermanently)
	users.PATCH("/:id/activate", userHandler.Activate)
	users.POST("/:id/roles/:role", userHandler.AssignRole)
	users.DELETE("/:id/roles/:role", userHandler.RemoveRole)

	// --- Admin statistics ---
	adminHandler := handler.NewAdminHandler(deps.Stats)
	adminGroup := e.Group("/api/admin", authn, admin)
	adminGroup.GET("/stats", adminHandler.Stats)
	adminGroup.GET("/dashboard", adminHandler.Dashboard)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Health)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
