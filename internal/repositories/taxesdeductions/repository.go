// Package taxesdeductions persists settlement tax/fee aggregates. The table
// is an append-only ledger: rows are inserted per settlement run and summed
// at read time.
package taxesdeductions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/AngelMagaquian/laintapp-api/pkg/database"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

var columns = []string{
	"id", "provider", "date", "costo_servicio", "iva", "iibb",
	"descuentos_financieros", "imp_credito_debito", "per_iva",
	"otros_imp", "otros_aran", "count", "created_at", "updated_at",
}

// Repository handles taxes/deductions aggregate persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new taxes/deductions repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// InsertMany appends a batch of aggregate rows
func (r *Repository) InsertMany(ctx context.Context, aggregates []models.TaxesDeductions) error {
	ctx, span := tracing.StartSpan(ctx, "taxesdeductions.Repository.InsertMany")
	defer span.End()

	if len(aggregates) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("taxes_deductions")
	sb.Cols(columns...)
	for _, agg := range aggregates {
		sb.Values(
			agg.ID, agg.Provider, agg.Date, agg.CostoServicio, agg.IVA, agg.IIBB,
			agg.DescuentosFinancieros, agg.ImpCreditoDebito, agg.PerIVA,
			agg.OtrosImp, agg.OtrosAran, agg.Count, agg.CreatedAt, agg.UpdatedAt,
		)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(aggregates),
		}).Error("Failed to insert taxes aggregates")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert taxes aggregates")
	}

	return nil
}

// FindByRange retrieves aggregate rows in a date range, optionally narrowed
// by provider
func (r *Repository) FindByRange(ctx context.Context, provider string, start, end time.Time) ([]models.TaxesDeductions, error) {
	ctx, span := tracing.StartSpan(ctx, "taxesdeductions.Repository.FindByRange")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("taxes_deductions")
	where := []string{
		sb.GreaterEqualThan("date", start),
		sb.LessEqualThan("date", end),
	}
	if provider != "" {
		where = append(where, sb.Equal("provider", strings.ToLower(provider)))
	}
	sb.Where(where...)
	sb.OrderBy("date ASC", "provider ASC")

	query, args := sb.Build()
	var aggregates []models.TaxesDeductions
	if err := r.db.SelectContext(ctx, &aggregates, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get taxes aggregates")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get taxes aggregates")
	}

	return aggregates, nil
}
