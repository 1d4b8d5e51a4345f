package middleware

import (
	"time"

	appcontext "github.com/AngelMagaquian/laintapp-api/pkg/context"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

// Logger emits one access log line per request. It runs after Context so the
// request id is already on the context.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}

			ctx := req.Context()
			latency := time.Since(start)

			logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":    appcontext.GetRequestID(ctx),
				"trace_id":      tracing.GetTraceID(ctx),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"route":         c.Path(),
				"status":        res.Status,
				"remote_ip":     c.RealIP(),
				"user_agent":    req.UserAgent(),
				"latency_ms":    latency.Milliseconds(),
				"response_size": res.Size,
			}).Info("Request")

			return nil
		}
	}
}
