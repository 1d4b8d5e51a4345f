// Package settlement resolves provider payroll rows against previously
// approved matching records and transitions them to settled.
package settlement

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AngelMagaquian/laintapp-api/pkg/amounts"
	"github.com/AngelMagaquian/laintapp-api/pkg/events"
	"github.com/AngelMagaquian/laintapp-api/pkg/matching"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/providers"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

// FiservQuery matches approved fiserv records on the file's remapped card
// label plus lote, cupon and gross amount. Fiserv file dates are unreliable,
// so there is deliberately no date field here.
type FiservQuery struct {
	CardType string
	Lote     string
	Cupon    string
	Amount   decimal.Decimal
}

// NaranjaQuery matches approved naranja records. MatchDate and MatchAmount
// let the resolver relax the query tier by tier.
type NaranjaQuery struct {
	Amount      decimal.Decimal
	Lote        string
	Cupon       string
	DayStart    time.Time
	DayEnd      time.Time
	MatchDate   bool
	MatchAmount bool
}

// ModoQuery matches approved MODO records on terminal, lote, cupon and amount.
type ModoQuery struct {
	TPV    string
	Lote   string
	Cupon  string
	Amount decimal.Decimal
}

// GroupedDeduction is one client-supplied tax aggregate row, already grouped
// by provider and day before it reaches the API.
type GroupedDeduction struct {
	Provider              string          `json:"provider" validate:"required"`
	Date                  string          `json:"date" validate:"required"`
	CostoServicio         decimal.Decimal `json:"costo_servicio"`
	IVA                   decimal.Decimal `json:"iva"`
	IIBB                  decimal.Decimal `json:"iibb"`
	DescuentosFinancieros decimal.Decimal `json:"descuentos_financieros"`
	ImpCreditoDebito      decimal.Decimal `json:"imp_credito_debito"`
	PerIVA                decimal.Decimal `json:"per_iva"`
	OtrosImp              decimal.Decimal `json:"otros_imp"`
	OtrosAran             decimal.Decimal `json:"otros_aran"`
	Count                 int             `json:"count"`
}

// RecordStore is the matching-record persistence the resolver needs.
type RecordStore interface {
	FindApprovedByTransactionID(ctx context.Context, provider, transactionID string) ([]models.MatchingRecord, error)
	FindApprovedFiserv(ctx context.Context, q FiservQuery) ([]models.MatchingRecord, error)
	FindApprovedNaranja(ctx context.Context, q NaranjaQuery) ([]models.MatchingRecord, error)
	FindApprovedModo(ctx context.Context, q ModoQuery) ([]models.MatchingRecord, error)
	GetByID(ctx context.Context, id string) (*models.MatchingRecord, error)
	Settle(ctx context.Context, id string, net decimal.Decimal, payrollDate time.Time) (*models.MatchingRecord, error)
}

// TaxesStore persists settlement tax/fee aggregates.
type TaxesStore interface {
	InsertMany(ctx context.Context, aggregates []models.TaxesDeductions) error
	FindByRange(ctx context.Context, provider string, start, end time.Time) ([]models.TaxesDeductions, error)
}

// Resolver settles payroll batches with per-provider lookup strategies.
type Resolver struct {
	log     ectologger.Logger
	records RecordStore
	taxes   TaxesStore
	emitter *events.Emitter
}

// NewResolver creates a new settlement resolver.
func NewResolver(log ectologger.Logger, records RecordStore, taxes TaxesStore, emitter *events.Emitter) *Resolver {
	return &Resolver{
		log:     log,
		records: records,
		taxes:   taxes,
		emitter: emitter,
	}
}

// ProcessPayroll settles a payroll batch for providers that key their payout
// rows by transaction id. Providers outside the allow-list route every row to
// not-found rather than guessing a strategy.
func (r *Resolver) ProcessPayroll(ctx context.Context, provider string, rows []models.Record) (*models.SettlementResult, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.Resolver.ProcessPayroll")
	defer span.End()

	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "provider is required")
	}
	if rows == nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "payroll rows are required")
	}

	result := newResult()

	if !providers.SettlesByTransactionID(provider) {
		for _, row := range rows {
			result.NotFinded = append(result.NotFinded, notFound(row, "provider does not settle by transaction id"))
		}
		return result, nil
	}

	var settledRows []models.Record
	for _, row := range rows {
		txID := row.First("transaction_id", "id_transaccion")
		if txID == "" {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing transaction id"))
			continue
		}

		matches, err := r.records.FindApprovedByTransactionID(ctx, provider, strings.TrimSpace(txID))
		if err != nil {
			result.NotFinded = append(result.NotFinded, notFound(row, err.Error()))
			continue
		}
		if len(matches) == 0 {
			result.NotFinded = append(result.NotFinded, notFound(row, "no approved record for transaction id"))
			continue
		}

		net, ok := parseNet(row)
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing net amount"))
			continue
		}
		payrollDate, ok := parsePayrollDate(row)
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing payroll date"))
			continue
		}

		settled, err := r.records.Settle(ctx, matches[0].ID, net, payrollDate)
		if err != nil {
			result.NotFinded = append(result.NotFinded, notFound(row, err.Error()))
			continue
		}
		result.Finded = append(result.Finded, *settled)
		settledRows = append(settledRows, row)
	}

	r.finishBatch(ctx, provider, settledRows, result)
	return result, nil
}

// ProcessFiserv settles a fiserv payroll batch. The lookup remaps the file's
// card labels and ignores dates entirely. The settlement net is the record's
// stored estimate, not the figure the payroll file reports.
func (r *Resolver) ProcessFiserv(ctx context.Context, rows []models.Record) (*models.SettlementResult, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.Resolver.ProcessFiserv")
	defer span.End()

	if rows == nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "payroll rows are required")
	}

	result := newResult()
	var settledRows []models.Record

	for _, row := range rows {
		amount, ok := amounts.ParseField(row, "amount")
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing amount"))
			continue
		}

		query := FiservQuery{
			CardType: providers.RemapFiservCardLabel(row.First("card_type", "tarjeta")),
			Lote:     row.StrTrim("lote"),
			Cupon:    row.StrTrim("cupon"),
			Amount:   amount,
		}

		matches, err := r.records.FindApprovedFiserv(ctx, query)
		if err != nil {
			result.NotFinded = append(result.NotFinded, notFound(row, err.Error()))
			continue
		}
		if len(matches) == 0 {
			result.NotFinded = append(result.NotFinded, notFound(row, "no approved fiserv record"))
			continue
		}

		record := matches[0]
		if !record.EstimatedNet.Valid {
			result.NotFinded = append(result.NotFinded, notFound(row, "record has no estimated net"))
			continue
		}
		payrollDate, ok := parsePayrollDate(row)
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing payroll date"))
			continue
		}

		settled, err := r.records.Settle(ctx, record.ID, record.EstimatedNet.Decimal, payrollDate)
		if err != nil {
			result.NotFinded = append(result.NotFinded, notFound(row, err.Error()))
			continue
		}
		result.Finded = append(result.Finded, *settled)
		settledRows = append(settledRows, row)
	}

	r.finishBatch(ctx, "fiserv", settledRows, result)
	return result, nil
}

// ProcessNaranja settles a naranja payroll batch. Rows carrying neither a
// card number nor a coupon are the file's header/total/tax lines and are
// skipped outright. Lookup relaxes tier by tier: exact with same-day date,
// then without the date, then without the amount but with the date back on.
func (r *Resolver) ProcessNaranja(ctx context.Context, rows []models.Record) (*models.SettlementResult, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.Resolver.ProcessNaranja")
	defer span.End()

	if rows == nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "payroll rows are required")
	}

	result := newResult()
	var settledRows []models.Record

	for _, row := range rows {
		cardNumber := row.First("card_number", "numero_tarjeta")
		cupon := row.StrTrim("cupon")
		if cardNumber == "" && cupon == "" {
			continue
		}

		gross, ok := amounts.ParseField(row, "amount")
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing gross amount"))
			continue
		}
		fee := amounts.ParseFieldOrZero(row, "fee")
		interest := amounts.ParseFieldOrZero(row, "interest")
		net := gross.Sub(fee).Sub(interest)

		lote := row.StrTrim("lote")
		fileDate, hasFileDate := ParseNaranjaDate(row.First("file_date", "fecha_origen"))

		base := NaranjaQuery{
			Amount:      gross,
			Lote:        lote,
			Cupon:       cupon,
			MatchAmount: true,
		}

		var tiers []NaranjaQuery
		withDate := base
		if hasFileDate {
			withDate.MatchDate = true
			withDate.DayStart = time.Date(fileDate.Year(), fileDate.Month(), fileDate.Day(), 0, 0, 0, 0, time.UTC)
			withDate.DayEnd = withDate.DayStart.Add(24*time.Hour - time.Second)
			tiers = append(tiers, withDate)
		}
		tiers = append(tiers, base)
		// The last tier drops the amount but keeps the same-day range when
		// the row carried a parseable file date.
		noAmount := withDate
		noAmount.MatchAmount = false
		tiers = append(tiers, noAmount)

		record, reason := r.resolveNaranja(ctx, tiers)
		if record == nil {
			result.NotFinded = append(result.NotFinded, notFound(row, reason))
			continue
		}

		payrollDate, ok := ParseNaranjaDate(row.First("payroll_date", "fecha_pago"))
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing payroll date"))
			continue
		}

		settled, err := r.records.Settle(ctx, record.ID, net, payrollDate)
		if err != nil {
			result.NotFinded = append(result.NotFinded, notFound(row, err.Error()))
			continue
		}
		result.Finded = append(result.Finded, *settled)
		settledRows = append(settledRows, row)
	}

	r.finishBatch(ctx, "naranja", settledRows, result)
	return result, nil
}

func (r *Resolver) resolveNaranja(ctx context.Context, tiers []NaranjaQuery) (*models.MatchingRecord, string) {
	for _, tier := range tiers {
		matches, err := r.records.FindApprovedNaranja(ctx, tier)
		if err != nil {
			return nil, err.Error()
		}
		if len(matches) > 0 {
			return &matches[0], ""
		}
	}
	return nil, "no approved naranja record"
}

// ProcessModo settles a MODO payroll batch with a single strict lookup.
func (r *Resolver) ProcessModo(ctx context.Context, rows []models.Record) (*models.SettlementResult, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.Resolver.ProcessModo")
	defer span.End()

	if rows == nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "payroll rows are required")
	}

	result := newResult()
	var settledRows []models.Record

	for _, row := range rows {
		amount, ok := amounts.ParseField(row, "amount")
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing amount"))
			continue
		}

		query := ModoQuery{
			TPV:    row.StrTrim("tpv"),
			Lote:   row.StrTrim("lote"),
			Cupon:  row.StrTrim("cupon"),
			Amount: amount,
		}

		matches, err := r.records.FindApprovedModo(ctx, query)
		if err != nil {
			result.NotFinded = append(result.NotFinded, notFound(row, err.Error()))
			continue
		}
		if len(matches) == 0 {
			result.NotFinded = append(result.NotFinded, notFound(row, "no approved modo record"))
			continue
		}

		net, ok := parseNet(row)
		if !ok {
			net = amount
		}
		payrollDate, ok := parsePayrollDate(row)
		if !ok {
			result.NotFinded = append(result.NotFinded, notFound(row, "missing payroll date"))
			continue
		}

		settled, err := r.records.Settle(ctx, matches[0].ID, net, payrollDate)
		if err != nil {
			result.NotFinded = append(result.NotFinded, notFound(row, err.Error()))
			continue
		}
		result.Finded = append(result.Finded, *settled)
		settledRows = append(settledRows, row)
	}

	r.finishBatch(ctx, "modo", settledRows, result)
	return result, nil
}

// ManualSettle settles one approved record by id with an operator-supplied
// date and net amount.
func (r *Resolver) ManualSettle(ctx context.Context, id string, payrollDate time.Time, netAmount decimal.Decimal) (*models.MatchingRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.Resolver.ManualSettle")
	defer span.End()

	record, err := r.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(models.MatchStatusSettled) {
		return nil, httperror.NewHTTPError(http.StatusConflict, "record is not approved")
	}

	settled, err := r.records.Settle(ctx, id, netAmount, payrollDate)
	if err != nil {
		r.log.WithContext(ctx).WithError(err).WithFields(map[string]any{"matching_id": id}).Error("Failed to settle record manually")
		return nil, err
	}

	return settled, nil
}

// GetTaxesDeductions returns the aggregate rows recorded between two dates
// (inclusive, whole UTC days), optionally narrowed by provider. Because the
// ledger is append-only, callers sum overlapping rows themselves.
func (r *Resolver) GetTaxesDeductions(ctx context.Context, startDate, endDate, provider string) ([]models.TaxesDeductions, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.Resolver.GetTaxesDeductions")
	defer span.End()

	start, end, err := matching.DayBounds(startDate, endDate)
	if err != nil {
		return nil, err
	}

	// "all" is the client's wildcard provider.
	if strings.EqualFold(provider, "all") {
		provider = ""
	}

	return r.taxes.FindByRange(ctx, provider, start, end)
}

// SaveGroupedDeductions records pre-aggregated tax rows posted by a client.
// Rows without a count default to 1; an empty batch is a no-op.
func (r *Resolver) SaveGroupedDeductions(ctx context.Context, rows []GroupedDeduction) ([]models.TaxesDeductions, error) {
	ctx, span := tracing.StartSpan(ctx, "settlement.Resolver.SaveGroupedDeductions")
	defer span.End()

	if len(rows) == 0 {
		return []models.TaxesDeductions{}, nil
	}

	now := time.Now().UTC()
	aggregates := make([]models.TaxesDeductions, 0, len(rows))
	for _, row := range rows {
		date, ok := models.ParseDate(row.Date)
		if !ok {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date: "+row.Date)
		}

		count := row.Count
		if count == 0 {
			count = 1
		}

		aggregates = append(aggregates, models.TaxesDeductions{
			ID:                    uuid.New().String(),
			Provider:              row.Provider,
			Date:                  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			CostoServicio:         row.CostoServicio,
			IVA:                   row.IVA,
			IIBB:                  row.IIBB,
			DescuentosFinancieros: row.DescuentosFinancieros,
			ImpCreditoDebito:      row.ImpCreditoDebito,
			PerIVA:                row.PerIVA,
			OtrosImp:              row.OtrosImp,
			OtrosAran:             row.OtrosAran,
			Count:                 count,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
	}

	if err := r.taxes.InsertMany(ctx, aggregates); err != nil {
		return nil, err
	}

	_ = r.emitter.EmitTaxesAggregated(ctx, aggregates[0].Provider, events.TaxesAggregatedPayload{Rows: len(aggregates)})

	r.log.WithContext(ctx).WithField("rows", len(aggregates)).Info("Saved grouped deductions")

	return aggregates, nil
}

// finishBatch aggregates the settled input rows and emits the batch event.
// Aggregation failures are logged, not propagated: the records are already
// settled.
func (r *Resolver) finishBatch(ctx context.Context, provider string, settledRows []models.Record, result *models.SettlementResult) {
	log := r.log.WithContext(ctx).WithFields(map[string]any{
		"provider":   provider,
		"finded":     len(result.Finded),
		"not_finded": len(result.NotFinded),
	})

	if len(settledRows) > 0 && r.taxes != nil {
		aggregates := Aggregate(provider, settledRows)
		if err := r.taxes.InsertMany(ctx, aggregates); err != nil {
			log.WithError(err).Error("Failed to save settlement tax aggregates")
		} else {
			_ = r.emitter.EmitTaxesAggregated(ctx, provider, events.TaxesAggregatedPayload{
				Rows: len(aggregates),
			})
		}
	}

	_ = r.emitter.EmitSettlementCompleted(ctx, provider, events.SettlementCompletedPayload{
		FindedCount:    len(result.Finded),
		NotFindedCount: len(result.NotFinded),
	})

	log.Info("Completed settlement batch")
}

func newResult() *models.SettlementResult {
	return &models.SettlementResult{
		Finded:    []models.MatchingRecord{},
		NotFinded: []models.NotFoundRow{},
	}
}

func notFound(row models.Record, reason string) models.NotFoundRow {
	return models.NotFoundRow{OriginalData: row, Reason: reason}
}

func parseNet(row models.Record) (decimal.Decimal, bool) {
	if net, ok := amounts.ParseField(row, "net"); ok {
		return net, true
	}
	if net, ok := amounts.ParseField(row, "neto"); ok {
		return net, true
	}
	return amounts.ParseField(row, "total_net")
}

func parsePayrollDate(row models.Record) (time.Time, bool) {
	return firstParsedDate(
		row.First("payroll_date", "fecha_pago"),
		row.First("fecha_acreditacion", "credit_date"),
		row.StrTrim("file_date"),
	)
}

func firstParsedDate(values ...string) (time.Time, bool) {
	for _, v := range values {
		if t, ok := models.ParseDate(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
