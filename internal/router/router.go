package router

import (
	"github.com/anonto42/nano-midea/notifier/internal/handlers"
	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dependencies are the components the HTTP surface needs
type Dependencies struct {
	Events   handlers.EventRouter
	Verifier middleware.TokenVerifier // nil disables trigger auth
	Logger   *zap.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	// Health check, no auth
	e.GET("/health", handlers.HealthCheck)

	triggers := e.Group("/v1/triggers")
	triggers.Use(middleware.TriggerAuthMiddleware(deps.Verifier))
	triggerHandler := handlers.NewTriggerHandler(deps.Events)
	triggerHandler.RegisterTriggerRoutes(triggers)

	deps.Logger.Info("trigger routes configured", zap.Bool("auth", deps.Verifier != nil))
}
