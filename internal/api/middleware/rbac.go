package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

// RBAC lets the request through when the authenticated user holds at
// least one of the global roles. It must run after Auth.
func RBAC(roles ports.RoleReader, allowed ...domain.RoleCode) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, domain.ErrInvalidToken)
			}

			held, err := roles.RolesOf(c.Request().Context(), user.ID)
			if err != nil {
				return err
			}
			if !domain.HasAnyRole(held, allowed...) {
				return &echo.HTTPError{Code: http.StatusForbidden, Message: "access forbidden", Internal: domain.ErrForbidden}
			}
			return next(c)
		}
	}
}
