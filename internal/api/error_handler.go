package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/platformkit/identity/internal/api/handler"
	"github.com/platformkit/identity/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	ErrorType string              `json:"error_type"`
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Fields    handler.FieldErrors `json:"fields,omitempty"`
}

const requestErrorType = "request_error"

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders domain errors as {"error_type", "code", "message"}.
//   - Honours per-route statuses set with echo.HTTPError{Internal: domainErr}.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		var de *domain.Error
		if he.Internal != nil && errors.As(he.Internal, &de) {
			return he.Code, domainBody(de)
		}
		if he.Internal != nil && he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, he.Internal)
		}
		body := errorResponse{
			ErrorType: requestErrorType,
			Code:      statusCode(he.Code),
			Message:   fmt.Sprintf("%v", he.Message),
		}
		var fields handler.FieldErrors
		if he.Internal != nil && errors.As(he.Internal, &fields) {
			body.Fields = fields
		}
		return he.Code, body
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return domainStatus(de), domainBody(de)
	}

	// Known internal sentinels → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domainBody(domain.ErrInvalidToken)
	case errors.Is(err, domain.ErrForbidden):
		return sentinel(http.StatusForbidden, "access forbidden")
	case errors.Is(err, domain.ErrUserNotFound):
		return sentinel(http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrCompanyNotFound):
		return sentinel(http.StatusNotFound, "company not found")
	case errors.Is(err, domain.ErrCompanyExists):
		return sentinel(http.StatusConflict, "company already exists")
	case errors.Is(err, domain.ErrNotEnterpriseUser):
		return sentinel(http.StatusConflict, "user is not an enterprise user")
	case errors.Is(err, domain.ErrInvalidRoleCode),
		errors.Is(err, domain.ErrInvalidUserType),
		errors.Is(err, domain.ErrInvalidCompanyName):
		return sentinel(http.StatusBadRequest, err.Error())
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnhandled(log, c, err)
	return sentinel(http.StatusInternalServerError, "internal server error")
}

// domainStatus is the default status of a client-facing error. Routes
// that need another status wrap the error in an echo.HTTPError.
func domainStatus(de *domain.Error) int {
	switch de {
	case domain.ErrWrongCredentials, domain.ErrEmailNotExist, domain.ErrInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func domainBody(de *domain.Error) errorResponse {
	return errorResponse{ErrorType: string(de.Type), Code: de.Code, Message: de.Message}
}

func sentinel(status int, msg string) (int, errorResponse) {
	return status, errorResponse{ErrorType: requestErrorType, Code: statusCode(status), Message: msg}
}

// statusCode turns "Not Found" into "not_found".
func statusCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}

func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
