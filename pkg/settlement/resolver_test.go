package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

type settleCall struct {
	id          string
	net         decimal.Decimal
	payrollDate time.Time
}

type fakeRecordStore struct {
	byTransactionID map[string][]models.MatchingRecord
	fiservMatches   []models.MatchingRecord
	naranjaMatches  func(NaranjaQuery) []models.MatchingRecord
	modoMatches     []models.MatchingRecord
	byID            map[string]*models.MatchingRecord

	fiservQueries  []FiservQuery
	naranjaQueries []NaranjaQuery
	modoQueries    []ModoQuery
	settleCalls    []settleCall
	settleErr      error
}

func (f *fakeRecordStore) FindApprovedByTransactionID(_ context.Context, provider, transactionID string) ([]models.MatchingRecord, error) {
	return f.byTransactionID[provider+"/"+transactionID], nil
}

func (f *fakeRecordStore) FindApprovedFiserv(_ context.Context, q FiservQuery) ([]models.MatchingRecord, error) {
	f.fiservQueries = append(f.fiservQueries, q)
	return f.fiservMatches, nil
}

func (f *fakeRecordStore) FindApprovedNaranja(_ context.Context, q NaranjaQuery) ([]models.MatchingRecord, error) {
	f.naranjaQueries = append(f.naranjaQueries, q)
	if f.naranjaMatches == nil {
		return nil, nil
	}
	return f.naranjaMatches(q), nil
}

func (f *fakeRecordStore) FindApprovedModo(_ context.Context, q ModoQuery) ([]models.MatchingRecord, error) {
	f.modoQueries = append(f.modoQueries, q)
	return f.modoMatches, nil
}

func (f *fakeRecordStore) GetByID(_ context.Context, id string) (*models.MatchingRecord, error) {
	record, ok := f.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return record, nil
}

func (f *fakeRecordStore) Settle(_ context.Context, id string, net decimal.Decimal, payrollDate time.Time) (*models.MatchingRecord, error) {
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	f.settleCalls = append(f.settleCalls, settleCall{id: id, net: net, payrollDate: payrollDate})
	return &models.MatchingRecord{
		ID:          id,
		Status:      models.MatchStatusSettled,
		AmountNet:   decimal.NullDecimal{Decimal: net, Valid: true},
		PayrollDate: &payrollDate,
	}, nil
}

type fakeTaxesStore struct {
	inserted [][]models.TaxesDeductions
	rows     []models.TaxesDeductions

	rangeProvider string
	rangeStart    time.Time
	rangeEnd      time.Time
}

func (f *fakeTaxesStore) InsertMany(_ context.Context, aggregates []models.TaxesDeductions) error {
	f.inserted = append(f.inserted, aggregates)
	return nil
}

func (f *fakeTaxesStore) FindByRange(_ context.Context, provider string, start, end time.Time) ([]models.TaxesDeductions, error) {
	f.rangeProvider = provider
	f.rangeStart = start
	f.rangeEnd = end
	return f.rows, nil
}

func newTestResolver(records *fakeRecordStore, taxes *fakeTaxesStore) *Resolver {
	log := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewResolver(log, records, taxes, nil)
}

func approved(id string) models.MatchingRecord {
	return models.MatchingRecord{ID: id, Status: models.MatchStatusApproved}
}

func TestProcessPayroll_Validation(t *testing.T) {
	resolver := newTestResolver(&fakeRecordStore{}, &fakeTaxesStore{})

	_, err := resolver.ProcessPayroll(context.Background(), "", []models.Record{})
	assert.ErrorContains(t, err, "provider is required")

	_, err = resolver.ProcessPayroll(context.Background(), "nave", nil)
	assert.ErrorContains(t, err, "payroll rows are required")
}

func TestProcessPayroll_ProviderOutsideAllowList(t *testing.T) {
	resolver := newTestResolver(&fakeRecordStore{}, &fakeTaxesStore{})

	rows := []models.Record{
		{"transaction_id": "tx-1"},
		{"transaction_id": "tx-2"},
	}
	result, err := resolver.ProcessPayroll(context.Background(), "fiserv", rows)
	require.NoError(t, err)

	assert.Empty(t, result.Finded)
	require.Len(t, result.NotFinded, 2)
	for _, nf := range result.NotFinded {
		assert.Equal(t, "provider does not settle by transaction id", nf.Reason)
	}
}

func TestProcessPayroll_SettlesByTransactionID(t *testing.T) {
	records := &fakeRecordStore{
		byTransactionID: map[string][]models.MatchingRecord{
			"nave/tx-1": {approved("rec-1")},
		},
	}
	taxes := &fakeTaxesStore{}
	resolver := newTestResolver(records, taxes)

	rows := []models.Record{
		{
			"transaction_id": "tx-1",
			"net":            "900,50",
			"payroll_date":   "2025-10-01",
			"iva":            "21",
		},
		{"net": "100", "payroll_date": "2025-10-01"},                        // no transaction id
		{"transaction_id": "tx-missing", "net": "1", "payroll_date": "2025-10-01"}, // no approved record
		{"transaction_id": "tx-1", "payroll_date": "2025-10-01"},            // no net
	}

	result, err := resolver.ProcessPayroll(context.Background(), "NAVE", rows)
	require.NoError(t, err)

	require.Len(t, result.Finded, 1)
	assert.Equal(t, "rec-1", result.Finded[0].ID)
	assert.Equal(t, models.MatchStatusSettled, result.Finded[0].Status)

	require.Len(t, records.settleCalls, 1)
	assert.Equal(t, "900.5", records.settleCalls[0].net.String())
	assert.Equal(t, "2025-10-01", records.settleCalls[0].payrollDate.Format("2006-01-02"))

	require.Len(t, result.NotFinded, 3)
	assert.Equal(t, "missing transaction id", result.NotFinded[0].Reason)
	assert.Equal(t, "no approved record for transaction id", result.NotFinded[1].Reason)
	assert.Equal(t, "missing net amount", result.NotFinded[2].Reason)

	// Only the settled row feeds the tax aggregates.
	require.Len(t, taxes.inserted, 1)
	require.Len(t, taxes.inserted[0], 1)
	assert.Equal(t, "nave", taxes.inserted[0][0].Provider)
	assert.Equal(t, "21", taxes.inserted[0][0].IVA.String())
	assert.Equal(t, 1, taxes.inserted[0][0].Count)
}

func TestProcessFiserv_SettlesWithStoredEstimate(t *testing.T) {
	// The payroll file says 900 but the stored estimate is 950; the record
	// settles with 950.
	estimate := decimal.RequireFromString("950")
	record := approved("rec-1")
	record.EstimatedNet = decimal.NullDecimal{Decimal: estimate, Valid: true}

	records := &fakeRecordStore{fiservMatches: []models.MatchingRecord{record}}
	resolver := newTestResolver(records, &fakeTaxesStore{})

	rows := []models.Record{
		{
			"card_type":    "Visa Crédito",
			"lote":         "12",
			"cupon":        "345",
			"amount":       "1000",
			"net":          "900",
			"payroll_date": "2025-10-01",
		},
	}
	result, err := resolver.ProcessFiserv(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, result.Finded, 1)
	require.Len(t, records.settleCalls, 1)
	assert.Equal(t, "950", records.settleCalls[0].net.String())

	require.Len(t, records.fiservQueries, 1)
	query := records.fiservQueries[0]
	assert.Equal(t, "VISA", query.CardType)
	assert.Equal(t, "12", query.Lote)
	assert.Equal(t, "345", query.Cupon)
	assert.Equal(t, "1000", query.Amount.String())
}

func TestProcessFiserv_RecordWithoutEstimate(t *testing.T) {
	records := &fakeRecordStore{fiservMatches: []models.MatchingRecord{approved("rec-1")}}
	resolver := newTestResolver(records, &fakeTaxesStore{})

	rows := []models.Record{
		{"card_type": "AMEX", "amount": "1000", "payroll_date": "2025-10-01"},
	}
	result, err := resolver.ProcessFiserv(context.Background(), rows)
	require.NoError(t, err)

	assert.Empty(t, result.Finded)
	require.Len(t, result.NotFinded, 1)
	assert.Equal(t, "record has no estimated net", result.NotFinded[0].Reason)
	assert.Empty(t, records.settleCalls)
}

func TestProcessNaranja_SkipsHeaderRows(t *testing.T) {
	records := &fakeRecordStore{}
	resolver := newTestResolver(records, &fakeTaxesStore{})

	rows := []models.Record{
		{"amount": "99999", "iva": "21000"}, // totals line: no card number, no coupon
	}
	result, err := resolver.ProcessNaranja(context.Background(), rows)
	require.NoError(t, err)

	assert.Empty(t, result.Finded)
	assert.Empty(t, result.NotFinded)
	assert.Empty(t, records.naranjaQueries)
}

func TestProcessNaranja_TierFallback(t *testing.T) {
	// No match with the date, none without it, then a hit once the amount
	// constraint is dropped.
	records := &fakeRecordStore{
		naranjaMatches: func(q NaranjaQuery) []models.MatchingRecord {
			if !q.MatchAmount {
				return []models.MatchingRecord{approved("rec-1")}
			}
			return nil
		},
	}
	resolver := newTestResolver(records, &fakeTaxesStore{})

	rows := []models.Record{
		{
			"card_number":  "4509xxxx",
			"cupon":        "345",
			"lote":         "12",
			"amount":       "1000",
			"fee":          "50",
			"interest":     "25",
			"file_date":    "26092025",
			"payroll_date": "5102025",
		},
	}
	result, err := resolver.ProcessNaranja(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, records.naranjaQueries, 3)
	first := records.naranjaQueries[0]
	assert.True(t, first.MatchDate)
	assert.True(t, first.MatchAmount)
	assert.Equal(t, "2025-09-26", first.DayStart.Format("2006-01-02"))
	assert.Equal(t, "2025-09-26", first.DayEnd.Format("2006-01-02"))

	second := records.naranjaQueries[1]
	assert.False(t, second.MatchDate)
	assert.True(t, second.MatchAmount)

	// Dropping the amount does not drop the same-day range: a record from
	// another day must not be settled by the loosest tier.
	third := records.naranjaQueries[2]
	assert.False(t, third.MatchAmount)
	assert.True(t, third.MatchDate)
	assert.Equal(t, "2025-09-26", third.DayStart.Format("2006-01-02"))
	assert.Equal(t, "2025-09-26", third.DayEnd.Format("2006-01-02"))

	require.Len(t, result.Finded, 1)
	require.Len(t, records.settleCalls, 1)
	assert.Equal(t, "925", records.settleCalls[0].net.String(), "net is gross minus fee minus interest")
	assert.Equal(t, "2025-10-05", records.settleCalls[0].payrollDate.Format("2006-01-02"))
}

func TestProcessNaranja_NoMatchAfterAllTiers(t *testing.T) {
	records := &fakeRecordStore{}
	resolver := newTestResolver(records, &fakeTaxesStore{})

	rows := []models.Record{
		{"cupon": "345", "lote": "12", "amount": "1000", "payroll_date": "2025-10-05"},
	}
	result, err := resolver.ProcessNaranja(context.Background(), rows)
	require.NoError(t, err)

	assert.Empty(t, result.Finded)
	require.Len(t, result.NotFinded, 1)
	assert.Equal(t, "no approved naranja record", result.NotFinded[0].Reason)
	// No file date on the row, so only the two dateless tiers run.
	assert.Len(t, records.naranjaQueries, 2)
}

func TestProcessModo(t *testing.T) {
	records := &fakeRecordStore{modoMatches: []models.MatchingRecord{approved("rec-1")}}
	resolver := newTestResolver(records, &fakeTaxesStore{})

	rows := []models.Record{
		{"tpv": "900", "lote": "12", "cupon": "345", "amount": "1000", "payroll_date": "2025-10-01"},
	}
	result, err := resolver.ProcessModo(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, result.Finded, 1)
	require.Len(t, records.modoQueries, 1)
	assert.Equal(t, "900", records.modoQueries[0].TPV)

	// Without an explicit net the gross amount settles.
	require.Len(t, records.settleCalls, 1)
	assert.Equal(t, "1000", records.settleCalls[0].net.String())
}

func TestManualSettle(t *testing.T) {
	payrollDate := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	net := decimal.RequireFromString("500")

	t.Run("approved record settles", func(t *testing.T) {
		record := approved("rec-1")
		records := &fakeRecordStore{byID: map[string]*models.MatchingRecord{"rec-1": &record}}
		resolver := newTestResolver(records, &fakeTaxesStore{})

		settled, err := resolver.ManualSettle(context.Background(), "rec-1", payrollDate, net)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusSettled, settled.Status)
		require.Len(t, records.settleCalls, 1)
		assert.Equal(t, "500", records.settleCalls[0].net.String())
	})

	t.Run("pending record conflicts", func(t *testing.T) {
		record := models.MatchingRecord{ID: "rec-1", Status: models.MatchStatusPending}
		records := &fakeRecordStore{byID: map[string]*models.MatchingRecord{"rec-1": &record}}
		resolver := newTestResolver(records, &fakeTaxesStore{})

		_, err := resolver.ManualSettle(context.Background(), "rec-1", payrollDate, net)
		assert.ErrorContains(t, err, "not approved")
		assert.Empty(t, records.settleCalls)
	})

	t.Run("unknown record", func(t *testing.T) {
		records := &fakeRecordStore{byID: map[string]*models.MatchingRecord{}}
		resolver := newTestResolver(records, &fakeTaxesStore{})

		_, err := resolver.ManualSettle(context.Background(), "nope", payrollDate, net)
		assert.Error(t, err)
	})
}

func TestGetTaxesDeductions(t *testing.T) {
	taxes := &fakeTaxesStore{rows: []models.TaxesDeductions{{Provider: "fiserv"}}}
	resolver := newTestResolver(&fakeRecordStore{}, taxes)

	rows, err := resolver.GetTaxesDeductions(context.Background(), "2025-10-01", "2025-10-31", "fiserv")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.Equal(t, "fiserv", taxes.rangeProvider)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), taxes.rangeStart)
	assert.Equal(t, time.Date(2025, 10, 31, 23, 59, 59, 0, time.UTC), taxes.rangeEnd)

	// "all" is a wildcard, not a provider name.
	_, err = resolver.GetTaxesDeductions(context.Background(), "2025-10-01", "2025-10-31", "all")
	require.NoError(t, err)
	assert.Equal(t, "", taxes.rangeProvider)

	_, err = resolver.GetTaxesDeductions(context.Background(), "bogus", "2025-10-31", "")
	assert.ErrorContains(t, err, "invalid start date")
}

func TestSaveGroupedDeductions(t *testing.T) {
	t.Run("persists rows with defaults", func(t *testing.T) {
		taxes := &fakeTaxesStore{}
		resolver := newTestResolver(&fakeRecordStore{}, taxes)

		rows := []GroupedDeduction{
			{
				Provider:      "naranja",
				Date:          "2025-10-05",
				CostoServicio: decimal.RequireFromString("12.50"),
				IVA:           decimal.RequireFromString("2.62"),
			},
			{
				Provider: "naranja",
				Date:     "2025-10-06T15:04:05Z",
				Count:    7,
			},
		}

		saved, err := resolver.SaveGroupedDeductions(context.Background(), rows)
		require.NoError(t, err)
		require.Len(t, saved, 2)
		require.Len(t, taxes.inserted, 1)

		first := taxes.inserted[0][0]
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, "naranja", first.Provider)
		assert.Equal(t, time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC), first.Date)
		assert.Equal(t, "12.5", first.CostoServicio.String())
		assert.Equal(t, 1, first.Count)

		second := taxes.inserted[0][1]
		assert.Equal(t, time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC), second.Date)
		assert.Equal(t, 7, second.Count)
	})

	t.Run("rejects unparseable dates", func(t *testing.T) {
		resolver := newTestResolver(&fakeRecordStore{}, &fakeTaxesStore{})

		_, err := resolver.SaveGroupedDeductions(context.Background(), []GroupedDeduction{
			{Provider: "naranja", Date: "not a date"},
		})
		assert.ErrorContains(t, err, "invalid date")
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		taxes := &fakeTaxesStore{}
		resolver := newTestResolver(&fakeRecordStore{}, taxes)

		saved, err := resolver.SaveGroupedDeductions(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, saved)
		assert.Empty(t, taxes.inserted)
	})
}
