// Package settlement exposes the payroll settlement endpoints.
package settlement

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/settlement"
	"github.com/AngelMagaquian/laintapp-api/pkg/utils"
)

// Register registers settlement routes
func Register(g *echo.Group) {
	g.POST("/payroll/:provider", ProcessPayroll)
	g.POST("/fiserv", ProcessFiserv)
	g.POST("/naranja", ProcessNaranja)
	g.POST("/modo", ProcessModo)
	g.POST("/manual/:id", ManualSettle)
}

// PayrollRequest carries one settlement cycle's payroll rows
type PayrollRequest struct {
	Rows []models.Record `json:"rows" validate:"required"`
}

// ProcessPayroll settles a payroll batch via the transaction-id strategy
func ProcessPayroll(c echo.Context) error {
	ctx := c.Request().Context()

	provider := c.Param("provider")

	req, err := utils.BindRequest[PayrollRequest](c)
	if err != nil {
		return err
	}

	ctx, resolver, err := ectoinject.GetContext[*settlement.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := resolver.ProcessPayroll(ctx, provider, req.Rows)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ProcessFiserv settles a fiserv payroll batch
func ProcessFiserv(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[PayrollRequest](c)
	if err != nil {
		return err
	}

	ctx, resolver, err := ectoinject.GetContext[*settlement.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := resolver.ProcessFiserv(ctx, req.Rows)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ProcessNaranja settles a naranja payroll batch
func ProcessNaranja(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[PayrollRequest](c)
	if err != nil {
		return err
	}

	ctx, resolver, err := ectoinject.GetContext[*settlement.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := resolver.ProcessNaranja(ctx, req.Rows)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ProcessModo settles a MODO payroll batch
func ProcessModo(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[PayrollRequest](c)
	if err != nil {
		return err
	}

	ctx, resolver, err := ectoinject.GetContext[*settlement.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := resolver.ProcessModo(ctx, req.Rows)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ManualSettleRequest is an operator-supplied settlement
type ManualSettleRequest struct {
	Date      string          `json:"date" validate:"required"`
	NetAmount decimal.Decimal `json:"netAmount" validate:"required"`
}

// ManualSettle settles one approved record by id
func ManualSettle(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	req, err := utils.BindRequest[ManualSettleRequest](c)
	if err != nil {
		return err
	}

	payrollDate, ok := models.ParseDate(req.Date)
	if !ok {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	payrollDate = time.Date(payrollDate.Year(), payrollDate.Month(), payrollDate.Day(), 0, 0, 0, 0, time.UTC)

	ctx, resolver, err := ectoinject.GetContext[*settlement.Resolver](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := resolver.ManualSettle(ctx, id, payrollDate, req.NetAmount)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}
