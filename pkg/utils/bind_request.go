package utils

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest binds path, query and body parameters onto T and runs its
// validation tags. Failures surface as 400s with the validator's message.
func BindRequest[T any](c echo.Context) (T, error) {
	var req T

	if err := c.Bind(&req); err != nil {
		return req, httperror.WrapError(http.StatusBadRequest, err)
	}

	req, err := Validate(req)
	if err != nil {
		return req, httperror.WrapError(http.StatusBadRequest, err)
	}

	return req, nil
}
