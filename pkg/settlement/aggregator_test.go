package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

func TestAggregate(t *testing.T) {
	rows := []models.Record{
		{
			"payroll_date":   "2025-10-01",
			"costo_servicio": "10,50",
			"iva":            "2.21",
			"iibb":           "1",
		},
		{
			"payroll_date":           "2025-10-01",
			"costo_servicio":         "4,50",
			"descuentos_financieros": "0.80",
		},
		{
			"payroll_date": "2025-10-02",
			"iva":          "5",
			"per_iva":      "1.25",
			"otros_imp":    "0,10",
			"otros_aran":   "0,05",
		},
	}

	aggregates := Aggregate("fiserv", rows)
	require.Len(t, aggregates, 2)

	first := aggregates[0]
	assert.Equal(t, "fiserv", first.Provider)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, "15", first.CostoServicio.String())
	assert.Equal(t, "2.21", first.IVA.String())
	assert.Equal(t, "1", first.IIBB.String())
	assert.Equal(t, "0.8", first.DescuentosFinancieros.String())
	assert.True(t, first.ImpCreditoDebito.IsZero())
	assert.NotEmpty(t, first.ID)

	second := aggregates[1]
	assert.Equal(t, time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Equal(t, 1, second.Count)
	assert.Equal(t, "5", second.IVA.String())
	assert.Equal(t, "1.25", second.PerIVA.String())
	assert.Equal(t, "0.1", second.OtrosImp.String())
	assert.Equal(t, "0.05", second.OtrosAran.String())
}

func TestAggregate_UnparseableDateBucketsTogether(t *testing.T) {
	rows := []models.Record{
		{"iva": "1"},
		{"payroll_date": "not a date", "iva": "2"},
	}

	aggregates := Aggregate("modo", rows)
	require.Len(t, aggregates, 1)
	assert.True(t, aggregates[0].Date.IsZero())
	assert.Equal(t, "3", aggregates[0].IVA.String())
	assert.Equal(t, 2, aggregates[0].Count)
}

func TestAggregate_PayrollDateFallsBackToCreditDate(t *testing.T) {
	rows := []models.Record{
		{"fecha_acreditacion": "2025-10-03", "iibb": "7"},
	}

	aggregates := Aggregate("naranja", rows)
	require.Len(t, aggregates, 1)
	assert.Equal(t, time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC), aggregates[0].Date)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate("fiserv", nil))
}
