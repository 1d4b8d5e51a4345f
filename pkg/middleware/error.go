package middleware

import (
	"net/http"

	appcontext "github.com/AngelMagaquian/laintapp-api/pkg/context"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body every failed request returns.
type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Error maps errors onto JSON responses. Status and message come from the
// httperror (or echo error) that reached the handler. 4xx messages pass
// through to the client; 5xx detail stays in the log.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Error("Request failed")

		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := ""
		var meta map[string]any

		if httperror.IsHTTPError(err) {
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			meta = httperr.Meta
		} else if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}

		if code >= http.StatusInternalServerError || message == "" {
			message = http.StatusText(code)
			meta = nil
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: appcontext.GetRequestID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
