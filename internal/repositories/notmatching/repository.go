// Package notmatching persists rows that received no counterpart in a
// matching pass.
package notmatching

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/AngelMagaquian/laintapp-api/pkg/database"
	matchsvc "github.com/AngelMagaquian/laintapp-api/pkg/matching"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

var columns = []string{
	"id", "original_data", "provider_name", "file_date", "transaction_type",
	"reviewed_by", "created_at", "updated_at",
}

// Repository handles not-matching record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new not-matching repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SaveAll inserts a batch of not-matching records
func (r *Repository) SaveAll(ctx context.Context, records []models.NotMatchingRecord) error {
	ctx, span := tracing.StartSpan(ctx, "notmatching.Repository.SaveAll")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("not_matchings")
	sb.Cols(columns...)
	for _, rec := range records {
		sb.Values(
			rec.ID, rec.OriginalData, rec.ProviderName, rec.FileDate,
			rec.TransactionType, rec.ReviewedBy, rec.CreatedAt, rec.UpdatedAt,
		)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(records),
		}).Error("Failed to insert not-matching records")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert not-matching records")
	}

	return nil
}

// Get retrieves not-matching records in a date range, optionally narrowed by
// provider
func (r *Repository) Get(ctx context.Context, filter matchsvc.NotMatchingFilter) ([]models.NotMatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "notmatching.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("not_matchings")
	where := []string{
		sb.GreaterEqualThan("file_date", filter.Start),
		sb.LessEqualThan("file_date", filter.End),
	}
	if filter.Provider != "" {
		where = append(where, sb.Equal("provider_name", strings.ToLower(filter.Provider)))
	}
	sb.Where(where...)
	sb.OrderBy("file_date ASC")

	query, args := sb.Build()
	var records []models.NotMatchingRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get not-matching records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get not-matching records")
	}

	return records, nil
}

// Delete removes not-matching records by id and returns the removed count
func (r *Repository) Delete(ctx context.Context, ids []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "notmatching.Repository.Delete")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("not_matchings")
	db.Where(db.In("id", sqlbuilder.List(ids)))

	query, args := db.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete not-matching records")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete not-matching records")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// TotalsByDay counts not-matching records per day for one provider
func (r *Repository) TotalsByDay(ctx context.Context, provider string, start, end time.Time) ([]models.DayCount, error) {
	ctx, span := tracing.StartSpan(ctx, "notmatching.Repository.TotalsByDay")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("to_char(file_date, 'YYYY-MM-DD') AS date", "COUNT(*) AS total")
	sb.From("not_matchings")
	sb.Where(
		sb.Equal("provider_name", strings.ToLower(provider)),
		sb.GreaterEqualThan("file_date", start),
		sb.LessEqualThan("file_date", end),
	)
	sb.GroupBy("to_char(file_date, 'YYYY-MM-DD')")
	sb.OrderBy("date ASC")

	query, args := sb.Build()
	var totals []models.DayCount
	if err := r.db.SelectContext(ctx, &totals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count not-matching records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count not-matching records")
	}

	return totals, nil
}
