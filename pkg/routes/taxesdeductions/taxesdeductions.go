// Package taxesdeductions exposes the settlement tax aggregate read path.
package taxesdeductions

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/AngelMagaquian/laintapp-api/pkg/settlement"
	"github.com/AngelMagaquian/laintapp-api/pkg/utils"
)

// Register registers taxes/deductions routes
func Register(g *echo.Group) {
	g.GET("", GetTaxesDeductions)
	g.POST("/grouped", SaveGroupedDeductions)
}

// SaveGroupedDeductionsRequest carries client-aggregated tax rows
type SaveGroupedDeductionsRequest struct {
	Rows []settlement.GroupedDeduction `json:"rows" validate:"required,min=1,dive"`
}

// SaveGroupedDeductions appends pre-aggregated tax rows to the ledger
func SaveGroupedDeductions(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[SaveGroupedDeductionsRequest](c)
	if err != nil {
		return err
	}

	ctx, resolver, err := ectoinject.GetContext[*settlement.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	aggregates, err := resolver.SaveGroupedDeductions(ctx, req.Rows)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, aggregates)
}

// GetTaxesDeductions lists aggregate rows in a date range
func GetTaxesDeductions(c echo.Context) error {
	ctx := c.Request().Context()

	startDate := c.QueryParam("start_date")
	endDate := c.QueryParam("end_date")
	if startDate == "" || endDate == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "start_date and end_date query parameters are required")
	}

	ctx, resolver, err := ectoinject.GetContext[*settlement.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	aggregates, err := resolver.GetTaxesDeductions(ctx, startDate, endDate, c.QueryParam("provider"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, aggregates)
}
