package settlement

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AngelMagaquian/laintapp-api/pkg/amounts"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

// Aggregate groups settled payroll rows by payroll day and sums their tax
// and fee components. Each run produces fresh rows; aggregates for the same
// provider and day are never merged with earlier runs, the ledger is summed
// at read time.
func Aggregate(provider string, rows []models.Record) []models.TaxesDeductions {
	now := time.Now().UTC()
	groups := make(map[string]*models.TaxesDeductions)

	for _, row := range rows {
		var date time.Time
		day := ""
		if t, ok := parsePayrollDate(row); ok {
			date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			day = date.Format("2006-01-02")
		}

		agg, ok := groups[day]
		if !ok {
			agg = &models.TaxesDeductions{
				ID:        uuid.New().String(),
				Provider:  provider,
				Date:      date,
				CreatedAt: now,
				UpdatedAt: now,
			}
			groups[day] = agg
		}

		for _, field := range models.TaxComponentFields {
			agg.AddComponent(field, amounts.ParseFieldOrZero(row, field))
		}
		agg.Count++
	}

	aggregates := make([]models.TaxesDeductions, 0, len(groups))
	for _, agg := range groups {
		aggregates = append(aggregates, *agg)
	}
	sort.Slice(aggregates, func(i, j int) bool {
		return aggregates[i].Date.Before(aggregates[j].Date)
	})

	return aggregates
}
