package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/renewalhub/renewalhub/internal/middleware"
	"github.com/renewalhub/renewalhub/internal/model"
	"github.com/renewalhub/renewalhub/internal/repository"
)

// CategoryHandler exposes CRUD over the caller's categories. Categories are
// owner-scoped: one user never sees another's groups.
type CategoryHandler struct {
	Categories *repository.CategoryRepo
	Services   *repository.ServiceRepo
}

func NewCategoryHandler(cats *repository.CategoryRepo, svcs *repository.ServiceRepo) *CategoryHandler {
	return &CategoryHandler{Categories: cats, Services: svcs}
}

type categoryCreateReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// List returns the caller's categories with service counts.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cats, err := h.Categories.ListForUser(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if cats == nil {
		cats = []model.Category{}
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

// serviceStub is the trimmed service shape embedded in sidebar responses.
type serviceStub struct {
	ID         uint64              `json:"id"`
	Name       string              `json:"name"`
	Status     model.ServiceStatus `json:"status"`
	ExpiryDate string              `json:"expiry_date"`
}

func stubsOf(services []model.Service) []serviceStub {
	out := make([]serviceStub, 0, len(services))
	for _, s := range services {
		out = append(out, serviceStub{ID: s.ID, Name: s.Name, Status: s.Status, ExpiryDate: s.ExpiryDate})
	}
	return out
}

// ListWithServices returns the caller's categories each with its services,
// plus a trailing synthetic "Uncategorized" group when any service has no
// category.
func (h *CategoryHandler) ListWithServices(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	cats, err := h.Categories.ListForUser(ctx, middleware.CurrentUser(c).ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	type group struct {
		model.Category
		Services []serviceStub `json:"services"`
	}
	result := make([]group, 0, len(cats)+1)
	for _, cat := range cats {
		services, err := h.Services.ListByCategory(ctx, &cat.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		g := group{Category: cat, Services: stubsOf(services)}
		g.ServiceCount = len(g.Services)
		result = append(result, g)
	}

	uncategorized, err := h.Services.ListByCategory(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(uncategorized) > 0 {
		g := group{
			Category: model.Category{
				Name:        model.UncategorizedName,
				Description: "Services without a category",
				Color:       "#71717a",
				Icon:        "inbox",
			},
			Services: stubsOf(uncategorized),
		}
		g.ServiceCount = len(g.Services)
		result = append(result, g)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": result})
}

// Create adds a category for the caller. Names are unique per owner,
// case-insensitive.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat, err := h.Categories.Create(ctx, middleware.CurrentUser(c).ID, req.Name, req.Description, req.Color, req.Icon)
	if err != nil {
		if err == repository.ErrDuplicateName {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category with this name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, cat)
}

// Update applies a partial update to one of the caller's categories.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	var upd repository.CategoryUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat, err := h.Categories.Update(ctx, id, middleware.CurrentUser(c).ID, upd)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, cat)
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	case repository.ErrDuplicateName:
		return c.JSON(http.StatusConflict, echo.Map{"error": "category with this name already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// Delete removes a category. Its services survive and are rewritten to the
// "Uncategorized" group.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Categories.Delete(ctx, id, middleware.CurrentUser(c).ID)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "category deleted successfully"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}
