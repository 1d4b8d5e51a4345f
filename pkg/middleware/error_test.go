package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcontext "github.com/AngelMagaquian/laintapp-api/pkg/context"
)

func invokeErrorHandler(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(appcontext.SetRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Error(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	handler(err, c)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestError(t *testing.T) {
	t.Run("client errors pass their message through", func(t *testing.T) {
		code, body := invokeErrorHandler(t, httperror.NewHTTPError(http.StatusNotFound, "matching record m-1 not found"))
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "matching record m-1 not found", body.Message)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("server errors hide their detail", func(t *testing.T) {
		code, body := invokeErrorHandler(t, errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Internal Server Error", body.Message)
	})

	t.Run("typed server errors are masked too", func(t *testing.T) {
		code, body := invokeErrorHandler(t, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Internal Server Error", body.Message)
	})

	t.Run("echo errors keep their status", func(t *testing.T) {
		code, body := invokeErrorHandler(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
		assert.Equal(t, http.StatusMethodNotAllowed, code)
		assert.Equal(t, "Method Not Allowed", body.Message)
	})
}
