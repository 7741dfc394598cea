package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"

	"salarydash/internal/engine"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ToAPIError maps an error returned by a handler to its HTTP shape.
func ToAPIError(err error) *APIError {
	var due *engine.DataUnavailableError
	if errors.As(err, &due) {
		return &APIError{StatusCode: http.StatusServiceUnavailable, ErrorCode: "DATA_UNAVAILABLE", Message: due.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &APIError{StatusCode: http.StatusServiceUnavailable, ErrorCode: "DATA_LOADING", Message: "dataset is still loading"}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var be *echo.BindingError
	if errors.As(err, &be) {
		return &APIError{StatusCode: be.Code, ErrorCode: codeForStatus(be.Code), Message: fmt.Sprint(be.Message)}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return &APIError{StatusCode: he.Code, ErrorCode: codeForStatus(he.Code), Message: fmt.Sprint(he.Message)}
	}
	return &APIError{StatusCode: http.StatusInternalServerError, ErrorCode: "INTERNAL_ERROR", Message: "internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_PARAMETER"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	default:
		return "HTTP_ERROR"
	}
}

func invalidParameter(err error) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "INVALID_PARAMETER", Message: err.Error()}
}

// ErrorHandler renders every handler error as an APIError.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		apiErr := ToAPIError(err)
		if apiErr.StatusCode >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				slog.String("path", c.Path()),
				slog.Any("error", err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(apiErr.StatusCode)
		} else {
			werr = c.JSON(apiErr.StatusCode, apiErr)
		}
		if werr != nil {
			logger.Error("write error response", slog.Any("error", werr))
		}
	}
}
