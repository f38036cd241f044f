package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/platformkit/identity/internal/api/metrics"
	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

const userKey = "user"

// Auth resolves the bearer token and injects the user into context.
// Authentication failures answer 401 with the invalid_token body; cache
// or storage outages are passed on to the error handler.
func Auth(authn ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := authn.Resolve(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					metrics.SessionResolutionsTotal.WithLabelValues("miss").Inc()
					return c.JSON(http.StatusUnauthorized, domain.ErrInvalidToken)
				}
				metrics.SessionResolutionsTotal.WithLabelValues("error").Inc()
				return err
			}

			metrics.SessionResolutionsTotal.WithLabelValues("hit").Inc()
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// UserFrom returns the user injected by Auth.
func UserFrom(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(userKey).(*domain.User)
	return u, ok && u != nil
}
