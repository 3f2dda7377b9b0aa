package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/shiftcover/server/internal/errors"
	"github.com/hrygo/shiftcover/server/internal/observability"
	"github.com/hrygo/shiftcover/server/service/accessor"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

func httpStatus(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRemoteUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status of its code.
// Errors without a code are logged and reported as INTERNAL without details.
func writeError(c echo.Context, err error) error {
	code := apperrors.GetCodeFromError(err, apperrors.ErrCodeInternal)
	message := err.Error()
	if code == apperrors.ErrCodeInternal {
		logger := slog.Default().With("method", c.Request().Method, "path", c.Path())
		if rc, ok := observability.FromContext(c.Request().Context()); ok {
			logger = rc.WithFields(slog.String(observability.LogFieldErrorCode, string(code)))
		}
		logger.Error("request failed", "error", err)
		message = "internal error"
	}
	return c.JSON(httpStatus(code), ErrorResponse{Code: code, Message: message})
}

// setCacheHeaders tells clients whether the response came from the cache.
func setCacheHeaders(c echo.Context, task *accessor.RefreshTask) {
	if task == nil {
		c.Response().Header().Set("X-Cache", "miss")
		return
	}
	c.Response().Header().Set("X-Cache", "hit")
	c.Response().Header().Set("X-Refresh-Id", task.ID)
}
