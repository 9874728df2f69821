package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/renewalhub/renewalhub/internal/middleware"
	"github.com/renewalhub/renewalhub/internal/model"
	"github.com/renewalhub/renewalhub/internal/notifier"
	"github.com/renewalhub/renewalhub/internal/repository"
)

// ServiceHandler exposes CRUD over service records plus the manual
// reminder trigger. Service records are shared across all authenticated
// users of the deployment; only categories are owner-scoped.
type ServiceHandler struct {
	Services *repository.ServiceRepo
	Logs     *repository.EmailLogRepo
	Engine   *notifier.Engine
}

func NewServiceHandler(svcs *repository.ServiceRepo, logs *repository.EmailLogRepo, engine *notifier.Engine) *ServiceHandler {
	return &ServiceHandler{Services: svcs, Logs: logs, Engine: engine}
}

// List returns all services.
func (h *ServiceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	services, err := h.Services.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if services == nil {
		services = []model.Service{}
	}
	return c.JSON(http.StatusOK, services)
}

// Create inserts a service. Missing expiry dates are derived from the
// duration-in-months field and a missing threshold list gets the 30/7/1
// defaults, both inside the repository.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req repository.ServiceCreate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	svc, err := h.Services.Create(ctx, middleware.CurrentUser(c).ID, req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, svc)
}

// Get returns one service by id.
func (h *ServiceHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	svc, err := h.Services.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, svc)
}

// Update applies a partial merge; absent fields keep their value.
func (h *ServiceHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	var upd repository.ServiceUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	svc, err := h.Services.Update(ctx, id, upd)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, svc)
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// Delete removes a service.
func (h *ServiceHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Services.Delete(ctx, id)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "service deleted successfully"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// SendReminder sends a reminder for one service right now. Unlike the
// automatic sweep it neither consults nor updates the fired-threshold set,
// so it always sends.
func (h *ServiceHandler) SendReminder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	entry, err := h.Engine.SendManual(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send reminder: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "reminder sent",
		"status":     entry.Status,
		"recipients": entry.Recipients,
	})
}

// EmailLogs returns the most recent send attempts, newest first.
func (h *ServiceHandler) EmailLogs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	logs, err := h.Logs.Recent(ctx, 100)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if logs == nil {
		logs = []model.EmailLog{}
	}
	return c.JSON(http.StatusOK, logs)
}
