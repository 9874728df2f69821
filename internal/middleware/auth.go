package middleware // reusable HTTP middleware for authentication and authorization

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/renewalhub/renewalhub/internal/model"
	"github.com/renewalhub/renewalhub/internal/repository"
	"github.com/renewalhub/renewalhub/internal/utils"
)

// userKey is the context key the authenticated user is stored under.
const userKey = "current_user"

// CurrentUser retrieves the authenticated user placed in the context by
// BearerAuth. The zero value is returned if no user is present.
func CurrentUser(c echo.Context) model.User {
	if u, ok := c.Get(userKey).(model.User); ok {
		return u
	}
	return model.User{}
}

// BearerAuth validates the Authorization bearer token and resolves it to a
// live user row. Looking the user up on every request means a deleted
// account is rejected immediately even while its token is still unexpired.
// Expired and invalid tokens get distinct messages, both 401.
func BearerAuth(secret string, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseToken(secret, raw)
			if err != nil {
				msg := "invalid token"
				if err == utils.ErrTokenExpired {
					msg = "token expired"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if err == repository.ErrNotFound {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}

			c.Set(userKey, u)
			return next(c)
		}
	}
}

// RequireAdmin rejects any request whose authenticated user is not an
// admin. Must run after BearerAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c).Role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
			}
			return next(c)
		}
	}
}
