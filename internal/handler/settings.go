package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/renewalhub/renewalhub/internal/mail"
	"github.com/renewalhub/renewalhub/internal/middleware"
	"github.com/renewalhub/renewalhub/internal/model"
	"github.com/renewalhub/renewalhub/internal/repository"
)

// SettingsHandler exposes the global settings singleton. Everything except
// the public branding view is admin-gated by the router.
type SettingsHandler struct {
	Settings     *repository.SettingsRepo
	NewTransport func(model.AppSettings) (mail.Transport, error)
}

func NewSettingsHandler(s *repository.SettingsRepo) *SettingsHandler {
	return &SettingsHandler{Settings: s, NewTransport: mail.New}
}

// maskKey hides an API key down to its last four characters.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// Get returns the full settings record with the API key masked.
func (h *SettingsHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Settings.Load(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load settings failed"})
	}
	s.ResendAPIKey = maskKey(s.ResendAPIKey)
	s.SMTPPassword = maskKey(s.SMTPPassword)
	return c.JSON(http.StatusOK, s)
}

// Update applies a partial merge of the settings record, stamping the
// editing admin. Changes take effect on the next sweep; nothing is cached.
func (h *SettingsHandler) Update(c echo.Context) error {
	var upd repository.SettingsUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Settings.Update(ctx, middleware.CurrentUser(c).ID, upd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update settings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "settings updated successfully"})
}

// Public returns branding-safe fields without authentication so the login
// page can theme itself.
func (h *SettingsHandler) Public(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Settings.Load(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load settings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"company_name":    s.CompanyName,
		"company_tagline": s.CompanyTagline,
		"logo_url":        s.LogoURL,
		"primary_color":   s.PrimaryColor,
		"theme_mode":      s.ThemeMode,
		"accent_color":    s.AccentColor,
	})
}

// TestEmail sends a configuration test message to the calling admin
// through the currently configured transport.
func (h *SettingsHandler) TestEmail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	s, err := h.Settings.Load(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load settings failed"})
	}
	transport, err := h.NewTransport(s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send test email: " + err.Error()})
	}

	admin := middleware.CurrentUser(c)
	subject := "[Test] Email Configuration - " + s.CompanyName
	if err := transport.Send(ctx, admin.Email, admin.Name, subject, mail.RenderTestEmail(s)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send test email: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "test email sent to " + admin.Email})
}
