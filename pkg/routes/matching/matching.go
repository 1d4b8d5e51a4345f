// Package matching exposes the matching pass and review endpoints.
package matching

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/AngelMagaquian/laintapp-api/pkg/matching"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/utils"
)

// Register registers matching routes
func Register(g *echo.Group) {
	g.POST("/process", ProcessMatching)
	g.POST("", SaveMatchingResults)
	g.GET("", GetMatchingResults)
	g.PUT("/:id/review", ReviewMatching)

	g.POST("/not-matching", SaveNotMatching)
	g.GET("/not-matching", GetNotMatching)
	g.DELETE("/not-matching", DeleteNotMatching)
	g.GET("/not-matching/totals", GetNotMatchingTotals)
}

// ProcessMatchingRequest carries both row sets of one matching pass
type ProcessMatchingRequest struct {
	Xrp      []models.Record `json:"xrp" validate:"required"`
	Provider []models.Record `json:"provider" validate:"required"`
}

// ProcessMatching runs a matching pass without persisting anything
func ProcessMatching(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[ProcessMatchingRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := service.ProcessMatching(ctx, req.Xrp, req.Provider)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// SaveMatchingRequest carries the reviewed results of a matching pass
type SaveMatchingRequest struct {
	Results []models.MatchResult `json:"results" validate:"required"`
}

// SaveMatchingResults persists matched results
func SaveMatchingResults(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[SaveMatchingRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := service.SaveMatchingResults(ctx, req.Results)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, records)
}

// GetMatchingResults lists persisted matching records in a date range
func GetMatchingResults(c echo.Context) error {
	ctx := c.Request().Context()

	startDate := c.QueryParam("start_date")
	endDate := c.QueryParam("end_date")
	if startDate == "" || endDate == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "start_date and end_date query parameters are required")
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := service.GetMatchingResults(
		ctx,
		startDate,
		endDate,
		c.QueryParam("provider"),
		models.MatchStatus(c.QueryParam("status")),
		c.QueryParam("date_field"),
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}

// ReviewMatchingRequest is a manual review decision
type ReviewMatchingRequest struct {
	Status     models.MatchStatus `json:"status" validate:"required"`
	ReviewedBy string             `json:"reviewedBy"`
}

// ReviewMatching applies a review decision to one record
func ReviewMatching(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	req, err := utils.BindRequest[ReviewMatchingRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := service.ReviewMatching(ctx, id, req.Status, req.ReviewedBy)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// SaveNotMatchingRequest carries unmatched rows for later review
type SaveNotMatchingRequest struct {
	Rows []models.Record `json:"rows" validate:"required"`
}

// SaveNotMatching persists unmatched rows
func SaveNotMatching(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[SaveNotMatchingRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := service.SaveNotMatching(ctx, req.Rows)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, records)
}

// GetNotMatching lists unmatched rows in a date range
func GetNotMatching(c echo.Context) error {
	ctx := c.Request().Context()

	startDate := c.QueryParam("start_date")
	endDate := c.QueryParam("end_date")
	if startDate == "" || endDate == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "start_date and end_date query parameters are required")
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := service.GetNotMatching(ctx, startDate, endDate, c.QueryParam("provider"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}

// DeleteNotMatchingRequest lists the resolved rows to remove
type DeleteNotMatchingRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// DeleteNotMatching removes resolved unmatched rows
func DeleteNotMatching(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[DeleteNotMatchingRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	deleted, err := service.DeleteNotMatching(ctx, req.IDs)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// GetNotMatchingTotals lists per-day unmatched counts for one provider
func GetNotMatchingTotals(c echo.Context) error {
	ctx := c.Request().Context()

	provider := c.QueryParam("provider")
	startDate := c.QueryParam("start_date")
	endDate := c.QueryParam("end_date")
	if provider == "" || startDate == "" || endDate == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "provider, start_date and end_date query parameters are required")
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	totals, err := service.GetNotMatchingTotals(ctx, provider, startDate, endDate)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, totals)
}
