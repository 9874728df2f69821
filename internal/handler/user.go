package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/renewalhub/renewalhub/internal/middleware"
	"github.com/renewalhub/renewalhub/internal/repository"
)

// UserHandler exposes the admin-only user management endpoints.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler { return &UserHandler{Users: u} }

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// List returns every user.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// Update applies a partial name/role update. Demoting the last admin is
// rejected with no state change.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var upd repository.UserUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, id, upd)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, u)
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case repository.ErrLastAdmin:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot demote the last admin"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// Delete removes a user. Self-deletion and removing the last admin are
// rejected.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Users.Delete(ctx, id, middleware.CurrentUser(c).ID)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "user deleted successfully"})
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case repository.ErrSelfDelete:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete yourself"})
	case repository.ErrLastAdmin:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete the last admin"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}
