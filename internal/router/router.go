// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/renewalhub/renewalhub/internal/config"
	"github.com/renewalhub/renewalhub/internal/handler"
	"github.com/renewalhub/renewalhub/internal/middleware"
	"github.com/renewalhub/renewalhub/internal/repository"
)

// Handlers groups everything the router needs to register the API.
type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Categories *handler.CategoryHandler
	Services  *handler.ServiceHandler
	Settings  *handler.SettingsHandler
	Dashboard *handler.DashboardHandler
}

// Register mounts the full API under /api. Three access tiers: public
// (health, branding), authenticated (bearer token resolving to a live
// user), and admin (settings and user management).
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, users *repository.UserRepo, h Handlers) {
	api := e.Group("/api")

	// Public endpoints: no token required.
	api.GET("/health", handler.Health)
	api.GET("/settings/public", h.Settings.Public)

	// Credential endpoints, rate limited to slow brute-force attempts.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)

	// Everything below requires a valid bearer token.
	auth := api.Group("")
	auth.Use(middleware.BearerAuth(cfg.JWTSecret, users))

	auth.GET("/auth/me", h.Auth.Me)

	auth.GET("/categories", h.Categories.List)
	auth.GET("/categories/with-services", h.Categories.ListWithServices)
	auth.POST("/categories", h.Categories.Create)
	auth.PUT("/categories/:id", h.Categories.Update)
	auth.DELETE("/categories/:id", h.Categories.Delete)

	auth.GET("/services", h.Services.List)
	auth.POST("/services", h.Services.Create)
	auth.GET("/services/:id", h.Services.Get)
	auth.PUT("/services/:id", h.Services.Update)
	auth.DELETE("/services/:id", h.Services.Delete)
	auth.POST("/services/:id/send-reminder", h.Services.SendReminder)

	auth.GET("/email-logs", h.Services.EmailLogs)
	auth.GET("/dashboard/stats", h.Dashboard.Stats)
	auth.POST("/check-expiring", h.Dashboard.CheckExpiring)

	// Admin tier: user management and settings.
	admin := api.Group("")
	admin.Use(middleware.BearerAuth(cfg.JWTSecret, users))
	admin.Use(middleware.RequireAdmin())

	admin.GET("/users", h.Users.List)
	admin.PUT("/users/:id", h.Users.Update)
	admin.DELETE("/users/:id", h.Users.Delete)

	admin.GET("/settings", h.Settings.Get)
	admin.PUT("/settings", h.Settings.Update)
	admin.POST("/settings/test-email", h.Settings.TestEmail)
}
