package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/shiftcover/server/internal/observability"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-Id"

// RequestContext attaches an observability.RequestContext to every request and
// logs its outcome. A client supplied X-Request-Id is kept.
func RequestContext(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			operation := req.Method + " " + c.Path()

			var rc *observability.RequestContext
			if id := req.Header.Get(HeaderRequestID); id != "" {
				rc = observability.NewRequestContextWithID(logger, id, operation, c.Param("owner"))
			} else {
				rc = observability.NewRequestContext(logger, operation, c.Param("owner"))
			}
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), rc)))
			c.Response().Header().Set(HeaderRequestID, rc.RequestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.Int64(observability.LogFieldDuration, rc.DurationMs()),
			}
			if status >= http.StatusBadRequest {
				rc.Warn("request failed", attrs...)
			} else {
				rc.Info("request served", attrs...)
			}
			return nil
		}
	}
}
