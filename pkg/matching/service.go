// Package matching pairs internal transaction rows against provider file
// rows: the engine scores candidate pairs, the formatter normalizes what a
// pass produced, and the service persists it.
package matching

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/AngelMagaquian/laintapp-api/pkg/database"
	"github.com/AngelMagaquian/laintapp-api/pkg/events"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

// DateFieldFileDate and friends are the timestamp columns a results query
// may filter on.
const (
	DateFieldFileDate             = "file_date"
	DateFieldEstimatedPayrollDate = "estimated_payroll_date"
	DateFieldPayrollDate          = "payroll_date"
)

// MatchingFilter narrows a matching results query. Start/End are inclusive
// day boundaries.
type MatchingFilter struct {
	Start     time.Time
	End       time.Time
	Provider  string
	Status    models.MatchStatus
	DateField string
}

// NotMatchingFilter narrows an unmatched rows query.
type NotMatchingFilter struct {
	Start    time.Time
	End      time.Time
	Provider string
}

// MatchingStore persists matching records.
type MatchingStore interface {
	SaveAll(ctx context.Context, records []models.MatchingRecord) error
	Get(ctx context.Context, filter MatchingFilter) ([]models.MatchingRecord, error)
	GetByID(ctx context.Context, id string) (*models.MatchingRecord, error)
	Update(ctx context.Context, record *models.MatchingRecord) error
}

// NotMatchingStore persists rows that received no counterpart.
type NotMatchingStore interface {
	SaveAll(ctx context.Context, records []models.NotMatchingRecord) error
	Get(ctx context.Context, filter NotMatchingFilter) ([]models.NotMatchingRecord, error)
	Delete(ctx context.Context, ids []string) (int64, error)
	TotalsByDay(ctx context.Context, provider string, start, end time.Time) ([]models.DayCount, error)
}

// ProviderCatalog reads the provider payout-terms catalog.
type ProviderCatalog interface {
	GetAll(ctx context.Context) ([]models.Provider, error)
}

// Service runs matching passes and manages the persisted results.
type Service struct {
	log          ectologger.Logger
	engine       *Engine
	matchings    MatchingStore
	notMatchings NotMatchingStore
	providers    ProviderCatalog
	emitter      *events.Emitter
}

// NewService creates a new matching service.
func NewService(
	log ectologger.Logger,
	engine *Engine,
	matchings MatchingStore,
	notMatchings NotMatchingStore,
	providers ProviderCatalog,
	emitter *events.Emitter,
) *Service {
	return &Service{
		log:          log,
		engine:       engine,
		matchings:    matchings,
		notMatchings: notMatchings,
		providers:    providers,
		emitter:      emitter,
	}
}

// ProcessOutput is the API-facing result of one matching pass.
type ProcessOutput struct {
	MatchingValues []models.MatchResult `json:"matchingValues"`
	NotMatching    []models.Record      `json:"notMatching"`
	NotMatchingXrp []models.Record      `json:"notMatchingXrp"`
}

// ProcessMatching runs the engine over both row sets without persisting
// anything. The caller reviews the output and saves it separately.
func (s *Service) ProcessMatching(ctx context.Context, xrpItems, providerItems []models.Record) (*ProcessOutput, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.ProcessMatching")
	defer span.End()

	result := s.engine.Process(ctx, xrpItems, providerItems)

	s.log.WithContext(ctx).WithFields(map[string]any{
		"internal_rows": len(xrpItems),
		"provider_rows": len(providerItems),
		"matched":       len(result.MatchingValues),
		"not_matching":  len(result.NotMatching),
	}).Info("Processed matching pass")

	return &ProcessOutput{
		MatchingValues: result.MatchingValues,
		NotMatching:    result.NotMatching,
		NotMatchingXrp: result.NotMatchingXrp,
	}, nil
}

// SaveMatchingResults persists every result of a pass, matched or not.
// Settlement estimates are filled from the provider catalog when the provider
// file itself carried no net or credit date.
func (s *Service) SaveMatchingResults(ctx context.Context, results []models.MatchResult) ([]models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.SaveMatchingResults")
	defer span.End()

	log := s.log.WithContext(ctx)

	catalog, err := s.providers.GetAll(ctx)
	if err != nil {
		// Estimation is enrichment; saving proceeds without it.
		log.WithError(err).Warn("Failed to load provider catalog; saving without estimates")
		catalog = nil
	}
	estimator := NewEstimator(catalog)

	// Results without a provider side persist too: the canonical fields fall
	// back to the row's posnet data and provider_name "unknown".
	records := make([]models.MatchingRecord, 0, len(results))
	unmatched := 0
	for _, res := range results {
		if res.Provider == nil {
			unmatched++
		}
		records = append(records, BuildRecord(res, estimator.Estimate(res)))
	}

	if len(records) == 0 {
		return []models.MatchingRecord{}, nil
	}

	if err := s.matchings.SaveAll(ctx, records); err != nil {
		log.WithError(err).Error("Failed to save matching records")
		return nil, err
	}

	first := records[0]
	fileDate := ""
	if first.FileDate != nil {
		fileDate = first.FileDate.Format("2006-01-02")
	}
	_ = s.emitter.EmitMatchingSaved(ctx, first.ProviderName, fileDate, events.MatchingSavedPayload{
		MatchedCount:      len(records) - unmatched,
		UnmatchedInternal: unmatched,
	})

	log.WithFields(map[string]any{"saved": len(records)}).Info("Saved matching records")
	return records, nil
}

// GetMatchingResults returns persisted matching records between two dates
// (inclusive, whole UTC days), optionally narrowed by provider and status.
// dateField selects which timestamp the range applies to and defaults to the
// file date.
func (s *Service) GetMatchingResults(ctx context.Context, startDate, endDate, provider string, status models.MatchStatus, dateField string) ([]models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.GetMatchingResults")
	defer span.End()

	start, end, err := DayBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	switch dateField {
	case "":
		dateField = DateFieldFileDate
	case DateFieldFileDate, DateFieldEstimatedPayrollDate, DateFieldPayrollDate:
	default:
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date field")
	}

	return s.matchings.Get(ctx, MatchingFilter{
		Start:     start,
		End:       end,
		Provider:  provider,
		Status:    status,
		DateField: dateField,
	})
}

// ReviewMatching applies a manual review decision to one record.
func (s *Service) ReviewMatching(ctx context.Context, id string, next models.MatchStatus, reviewedBy string) (*models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.ReviewMatching")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{"matching_id": id})

	record, err := s.matchings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !record.Status.CanTransitionTo(next) {
		log.WithFields(map[string]any{"from": record.Status, "to": next}).Warn("Rejected status transition")
		return nil, httperror.NewHTTPError(http.StatusConflict, "invalid status transition")
	}

	record.Status = next
	if reviewedBy != "" {
		record.ReviewedBy = &reviewedBy
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.matchings.Update(ctx, record); err != nil {
		log.WithError(err).Error("Failed to update matching record")
		return nil, err
	}

	_ = s.emitter.EmitMatchingReviewed(ctx, record)

	log.WithFields(map[string]any{"status": next}).Info("Reviewed matching record")
	return record, nil
}

// SaveNotMatching persists unmatched rows for later review. Provider file
// rows arrive as-is; unmatched internal rows arrive pre-shaped by the engine
// with original_data embedded.
func (s *Service) SaveNotMatching(ctx context.Context, rows []models.Record) ([]models.NotMatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.SaveNotMatching")
	defer span.End()

	records := make([]models.NotMatchingRecord, 0, len(rows))
	now := time.Now().UTC()
	for _, row := range rows {
		records = append(records, buildNotMatchingRecord(row, now))
	}

	if len(records) == 0 {
		return []models.NotMatchingRecord{}, nil
	}

	if err := s.notMatchings.SaveAll(ctx, records); err != nil {
		s.log.WithContext(ctx).WithError(err).Error("Failed to save not-matching records")
		return nil, err
	}

	return records, nil
}

// GetNotMatching returns unmatched rows between two dates (inclusive, whole
// UTC days), optionally narrowed by provider.
func (s *Service) GetNotMatching(ctx context.Context, startDate, endDate, provider string) ([]models.NotMatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.GetNotMatching")
	defer span.End()

	start, end, err := DayBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	return s.notMatchings.Get(ctx, NotMatchingFilter{Start: start, End: end, Provider: provider})
}

// DeleteNotMatching removes unmatched rows once they have been resolved.
func (s *Service) DeleteNotMatching(ctx context.Context, ids []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.DeleteNotMatching")
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}
	return s.notMatchings.Delete(ctx, ids)
}

// GetNotMatchingTotals returns the per-day count of unmatched rows for one
// provider over a date range.
func (s *Service) GetNotMatchingTotals(ctx context.Context, provider, startDate, endDate string) ([]models.DayCount, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.GetNotMatchingTotals")
	defer span.End()

	start, end, err := DayBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	return s.notMatchings.TotalsByDay(ctx, provider, start, end)
}

// DayBounds expands two dates into an inclusive UTC day range:
// start at 00:00:00 and end at 23:59:59.
func DayBounds(startDate, endDate string) (time.Time, time.Time, error) {
	start, ok := models.ParseDate(startDate)
	if !ok {
		return time.Time{}, time.Time{}, httperror.NewHTTPError(http.StatusBadRequest, "invalid start date")
	}
	end, ok := models.ParseDate(endDate)
	if !ok {
		return time.Time{}, time.Time{}, httperror.NewHTTPError(http.StatusBadRequest, "invalid end date")
	}

	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)

	if end.Before(start) {
		return time.Time{}, time.Time{}, httperror.NewHTTPError(http.StatusBadRequest, "end date precedes start date")
	}

	return start, end, nil
}

func buildNotMatchingRecord(row models.Record, now time.Time) models.NotMatchingRecord {
	original := row
	if inner := subRecord(row, "original_data"); inner != nil {
		original = inner
	}

	record := models.NotMatchingRecord{
		ID:              uuid.New().String(),
		OriginalData:    database.NewJSONB(original),
		ProviderName:    row.StrTrim("provider_name"),
		TransactionType: row.StrTrim("transaction_type"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if record.ProviderName == "" {
		record.ProviderName = original.ProviderName()
	}
	if record.TransactionType == "" {
		record.TransactionType = original.TransactionType()
	}
	if t, ok := models.ParseDate(row.StrTrim("file_date")); ok {
		record.FileDate = &t
	} else if t, ok := models.ParseDate(original.StrTrim("file_date")); ok {
		record.FileDate = &t
	}

	return record
}
