package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stateless-auth/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/social-register", cfg.Auth.SocialRegister)
	authGroup.Post("/send-sms", cfg.Auth.SendSMS)
	authGroup.Post("/verify-code", cfg.Auth.VerifyCode)
	authGroup.Post("/token/validate", cfg.Auth.ValidateToken)
	authGroup.Post("/lost-password", cfg.Auth.LostPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)

	authGroup.Post("/pusher", cfg.AuthMiddleware.Require, cfg.Realtime.Push)
}
