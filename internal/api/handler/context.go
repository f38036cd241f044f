package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/platformkit/identity/internal/api/metrics"
	"github.com/platformkit/identity/internal/api/middleware"
	"github.com/platformkit/identity/internal/core/domain"
)

// ctxUser extracts the user injected by the Auth middleware and fails fast
// when the route was mounted without it.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return user, nil
}

// withStatus overrides the default status of a client-facing error for
// one route. Other errors pass through untouched.
func withStatus(status int, err error, codes ...*domain.Error) error {
	for _, de := range codes {
		if errors.Is(err, de) {
			return &echo.HTTPError{Code: status, Message: de.Message, Internal: de}
		}
	}
	return err
}

// observe records the outcome of an auth flow.
func observe(flow string, err error) {
	metrics.AuthAttemptsTotal.WithLabelValues(flow, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}
