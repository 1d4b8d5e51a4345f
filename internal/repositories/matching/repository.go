// Package matching persists matching records in Postgres.
package matching

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/shopspring/decimal"

	"github.com/AngelMagaquian/laintapp-api/pkg/database"
	matchsvc "github.com/AngelMagaquian/laintapp-api/pkg/matching"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/normalizers"
	"github.com/AngelMagaquian/laintapp-api/pkg/settlement"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

var columns = []string{
	"id", "xrp", "provider", "match_level", "matched_fields", "status",
	"provider_name", "transaction_id", "transaction_type", "file_date",
	"amount", "card_type", "cupon", "lote", "tpv", "sucursal",
	"estimated_net", "estimated_payroll_date", "amount_net", "payroll_date",
	"reviewed_by", "created_at", "updated_at",
}

// Repository handles matching record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new matching repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SaveAll inserts a batch of matching records
func (r *Repository) SaveAll(ctx context.Context, records []models.MatchingRecord) error {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.SaveAll")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("matchings")
	sb.Cols(columns...)
	for _, rec := range records {
		sb.Values(
			rec.ID, rec.Xrp, rec.Provider, rec.MatchLevel, rec.MatchedFields, rec.Status,
			rec.ProviderName, rec.TransactionID, rec.TransactionType, rec.FileDate,
			rec.Amount, rec.CardType, rec.Cupon, rec.Lote, rec.TPV, rec.Sucursal,
			rec.EstimatedNet, rec.EstimatedPayrollDate, rec.AmountNet, rec.PayrollDate,
			rec.ReviewedBy, rec.CreatedAt, rec.UpdatedAt,
		)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(records),
		}).Error("Failed to insert matching records")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert matching records")
	}

	return nil
}

// Get retrieves matching records filtered by date range, provider and status
func (r *Repository) Get(ctx context.Context, filter matchsvc.MatchingFilter) ([]models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.Get")
	defer span.End()

	dateField := filter.DateField
	switch dateField {
	case matchsvc.DateFieldFileDate, matchsvc.DateFieldEstimatedPayrollDate, matchsvc.DateFieldPayrollDate:
	default:
		dateField = matchsvc.DateFieldFileDate
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matchings")
	where := []string{
		sb.GreaterEqualThan(dateField, filter.Start),
		sb.LessEqualThan(dateField, filter.End),
	}
	if filter.Provider != "" {
		where = append(where, sb.Equal("provider_name", strings.ToLower(filter.Provider)))
	}
	if filter.Status != "" {
		where = append(where, sb.Equal("status", filter.Status))
	}
	sb.Where(where...)
	sb.OrderBy(dateField + " ASC")

	query, args := sb.Build()
	var records []models.MatchingRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get matching records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get matching records")
	}

	return records, nil
}

// GetByID retrieves one matching record
func (r *Repository) GetByID(ctx context.Context, id string) (*models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matchings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var record models.MatchingRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("matching record %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get matching record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get matching record")
	}

	return &record, nil
}

// Update persists review-mutable fields of one record
func (r *Repository) Update(ctx context.Context, record *models.MatchingRecord) error {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.Update")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("matchings")
	ub.Set(
		ub.Assign("status", record.Status),
		ub.Assign("reviewed_by", record.ReviewedBy),
		ub.Assign("updated_at", record.UpdatedAt),
	)
	ub.Where(ub.Equal("id", record.ID))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"matching_id": record.ID,
		}).Error("Failed to update matching record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update matching record")
	}

	return nil
}

// FindApprovedByTransactionID retrieves approved records for one provider
// and transaction id
func (r *Repository) FindApprovedByTransactionID(ctx context.Context, provider, transactionID string) ([]models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.FindApprovedByTransactionID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matchings")
	sb.Where(
		sb.Equal("status", models.MatchStatusApproved),
		sb.Equal("provider_name", strings.ToLower(provider)),
		sb.Equal("transaction_id", transactionID),
	)

	return r.selectRecords(ctx, sb, "failed to find records by transaction id")
}

// FindApprovedFiserv retrieves approved fiserv records by card type, lote,
// cupon and amount. Dates are deliberately not part of the query.
func (r *Repository) FindApprovedFiserv(ctx context.Context, q settlement.FiservQuery) ([]models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.FindApprovedFiserv")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matchings")
	sb.Where(
		sb.Equal("status", models.MatchStatusApproved),
		sb.Equal("provider_name", "fiserv"),
		sb.Equal("card_type", q.CardType),
		sb.Equal("lote", q.Lote),
		sb.Equal("cupon", q.Cupon),
		sb.Equal("amount", q.Amount),
	)

	return r.selectRecords(ctx, sb, "failed to find fiserv records")
}

// FindApprovedNaranja retrieves approved naranja records. Lote and cupon are
// compared leading-zero-insensitively because naranja files strip zeros that
// the internal system keeps.
func (r *Repository) FindApprovedNaranja(ctx context.Context, q settlement.NaranjaQuery) ([]models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.FindApprovedNaranja")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matchings")
	where := []string{
		sb.Equal("status", models.MatchStatusApproved),
		sb.Equal("provider_name", "naranja"),
		fmt.Sprintf("lote ~ %s", sb.Var(zeroInsensitivePattern(q.Lote))),
		fmt.Sprintf("cupon ~ %s", sb.Var(zeroInsensitivePattern(q.Cupon))),
	}
	if q.MatchAmount {
		where = append(where, sb.Equal("amount", q.Amount))
	}
	if q.MatchDate {
		where = append(where,
			sb.GreaterEqualThan("file_date", q.DayStart),
			sb.LessEqualThan("file_date", q.DayEnd),
		)
	}
	sb.Where(where...)

	return r.selectRecords(ctx, sb, "failed to find naranja records")
}

// FindApprovedModo retrieves approved MODO records by terminal, lote, cupon
// and amount
func (r *Repository) FindApprovedModo(ctx context.Context, q settlement.ModoQuery) ([]models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.FindApprovedModo")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matchings")
	sb.Where(
		sb.Equal("status", models.MatchStatusApproved),
		sb.Equal("provider_name", "modo"),
		sb.Equal("tpv", q.TPV),
		sb.Equal("lote", q.Lote),
		sb.Equal("cupon", q.Cupon),
		sb.Equal("amount", q.Amount),
	)

	return r.selectRecords(ctx, sb, "failed to find modo records")
}

// Settle transitions one approved record to settled with its final net
// amount and payroll date
func (r *Repository) Settle(ctx context.Context, id string, net decimal.Decimal, payrollDate time.Time) (*models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Repository.Settle")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("matchings")
	ub.Set(
		ub.Assign("status", models.MatchStatusSettled),
		ub.Assign("amount_net", net),
		ub.Assign("payroll_date", payrollDate),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("status", models.MatchStatusApproved),
	)

	query, args := ub.Build()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"matching_id": id,
		}).Error("Failed to settle matching record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to settle matching record")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("matching record %s is not approved", id))
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matchings")
	sb.Where(sb.Equal("id", id))

	query, args = sb.Build()
	var record models.MatchingRecord
	if err := tx.GetContext(ctx, &record, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"matching_id": id,
		}).Error("Failed to reload settled matching record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to settle matching record")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to settle matching record")
	}

	return &record, nil
}

func (r *Repository) selectRecords(ctx context.Context, sb *sqlbuilder.SelectBuilder, errMsg string) ([]models.MatchingRecord, error) {
	query, args := sb.Build()
	var records []models.MatchingRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to select matching records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, errMsg)
	}
	return records, nil
}

// zeroInsensitivePattern builds a regex that matches a value regardless of
// how many leading zeros either side carries.
func zeroInsensitivePattern(value string) string {
	trimmed := normalizers.StripLeadingZeros(value)
	if trimmed == "" {
		return "^0+$"
	}
	return "^0*" + regexp.QuoteMeta(trimmed) + "$"
}
