// Package provider exposes the payout-terms catalog CRUD.
package provider

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/AngelMagaquian/laintapp-api/internal/repositories/provider"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/utils"
)

// Register registers provider catalog routes
func Register(g *echo.Group) {
	g.GET("", ListProviders)
	g.GET("/:name", GetProvider)
	g.POST("", CreateProvider)
	g.PUT("/:name", UpdateProvider)
	g.DELETE("/:name", DeleteProvider)
	g.POST("/:name/card-types", AddCardType)
}

// AddCardTypeRequest adds one card product to an existing provider
type AddCardTypeRequest struct {
	Name              string  `json:"name" validate:"required"`
	PayrollTime       int     `json:"payroll_time"`
	PayrollInterest   float64 `json:"payroll_interest"`
	PayrollCommission float64 `json:"payroll_commission"`
}

// AddCardType appends a card type to a provider's payout terms
func AddCardType(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[AddCardTypeRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*provider.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	updated, err := repo.AddCardType(ctx, c.Param("name"), models.CardType{
		Name:              req.Name,
		PayrollTime:       req.PayrollTime,
		PayrollInterest:   req.PayrollInterest,
		PayrollCommission: req.PayrollCommission,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// ListProviders lists the provider catalog
func ListProviders(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*provider.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	providers, err := repo.GetAll(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, providers)
}

// GetProvider gets one provider by name
func GetProvider(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*provider.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	provider, err := repo.GetByName(ctx, c.Param("name"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, provider)
}

// CreateProvider creates a new provider
func CreateProvider(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.UpsertProviderRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*provider.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	provider, err := repo.Create(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, provider)
}

// UpdateProvider replaces a provider's card types
func UpdateProvider(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.UpsertProviderRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*provider.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	provider, err := repo.Update(ctx, c.Param("name"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, provider)
}

// DeleteProvider removes one provider by name
func DeleteProvider(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*provider.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, c.Param("name")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
