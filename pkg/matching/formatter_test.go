package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

func TestFormatData(t *testing.T) {
	t.Run("canonical fields come from the embedded bags", func(t *testing.T) {
		raw := models.Record{
			"xrp": map[string]any{
				"posnet":           "pos-77",
				"sucursal":         "centro",
				"transaction_type": "venta",
			},
			"provider": map[string]any{
				"proveedor":          "Fiserv",
				"amount":             "1.234,56",
				"card_type":          "VISA",
				"cupon":              "345",
				"lote":               "12",
				"tpv":                "900",
				"file_date":          "2025-10-19",
				"neto":               "1100,10",
				"fecha_acreditacion": "2025-10-21",
			},
		}

		out := FormatData(raw)
		assert.Equal(t, "Fiserv", out.Str("provider_name"))
		assert.Equal(t, "pos-77", out.Str("transaction_id"))
		assert.Equal(t, "2025-10-19T00:00:00Z", out.Str("file_date"))
		assert.Equal(t, "VISA", out.Str("card_type"))
		assert.Equal(t, "345", out.Str("cupon"))
		assert.Equal(t, "12", out.Str("lote"))
		assert.Equal(t, "900", out.Str("tpv"))
		assert.Equal(t, "centro", out.Str("sucursal"))
		assert.Equal(t, "venta", out.Str("transaction_type"))

		amount, ok := out["amount"].(decimal.Decimal)
		require.True(t, ok)
		assert.Equal(t, "1234.56", amount.String())

		net, ok := out["estimated_net"].(decimal.Decimal)
		require.True(t, ok)
		assert.Equal(t, "1100.1", net.String())
		assert.Equal(t, "2025-10-21T00:00:00Z", out.Str("estimated_payrollDate"))
	})

	t.Run("missing identifiers fall back to unknown", func(t *testing.T) {
		out := FormatData(models.Record{})
		assert.Equal(t, "unknown", out.Str("provider_name"))
		assert.Equal(t, "unknown", out.Str("transaction_id"))
		assert.Equal(t, "unknown", out.Str("transaction_type"))
	})

	t.Run("provider transaction id wins over posnet", func(t *testing.T) {
		raw := models.Record{
			"xrp":      map[string]any{"posnet": "pos-77"},
			"provider": map[string]any{"transaction_id": "tx-1"},
		}
		assert.Equal(t, "tx-1", FormatData(raw).Str("transaction_id"))
	})

	t.Run("idempotent", func(t *testing.T) {
		raw := models.Record{
			"provider": map[string]any{
				"proveedor": "naranja",
				"amount":    "100,50",
				"file_date": "2025-10-19",
			},
		}
		once := FormatData(raw)
		twice := FormatData(once)
		assert.Equal(t, once, twice)
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		raw := models.Record{"provider_name": "naranja"}
		FormatData(raw)
		_, hasTx := raw["transaction_id"]
		assert.False(t, hasTx)
	})
}

func TestBuildRecord(t *testing.T) {
	t.Run("fills the persisted record from the match result", func(t *testing.T) {
		res := models.MatchResult{
			ID: 3,
			Xrp: models.Record{
				"posnet":   "pos-77",
				"sucursal": "centro",
			},
			Provider: models.Record{
				"proveedor": "fiserv",
				"amount":    "1000",
				"card_type": "VISA",
				"cupon":     "345",
				"lote":      "12",
				"tpv":       "900",
				"file_date": "2025-10-19",
			},
			MatchLevel:      models.MatchLevelGreen,
			MatchedFields:   []string{FieldMonto, FieldCupon},
			Status:          models.MatchStatusPending,
			TransactionType: "venta",
		}

		record := BuildRecord(res, Estimate{})
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "fiserv", record.ProviderName)
		assert.Equal(t, "pos-77", record.TransactionID)
		assert.Equal(t, "venta", record.TransactionType)
		assert.Equal(t, models.MatchLevelGreen, record.MatchLevel)
		assert.Equal(t, models.MatchStatusPending, record.Status)
		assert.Equal(t, []string{FieldMonto, FieldCupon}, record.MatchedFields.Data)

		require.True(t, record.Amount.Valid)
		assert.Equal(t, "1000", record.Amount.Decimal.String())
		require.NotNil(t, record.FileDate)
		assert.Equal(t, "2025-10-19", record.FileDate.Format("2006-01-02"))

		require.NotNil(t, record.CardType)
		assert.Equal(t, "VISA", *record.CardType)
		require.NotNil(t, record.Sucursal)
		assert.Equal(t, "centro", *record.Sucursal)
	})

	t.Run("estimate fills what the provider row lacks", func(t *testing.T) {
		payroll := time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC)
		est := Estimate{
			Net:         decimal.NullDecimal{Decimal: decimal.RequireFromString("950"), Valid: true},
			PayrollDate: &payroll,
		}
		res := models.MatchResult{
			Xrp:      models.Record{},
			Provider: models.Record{"proveedor": "fiserv", "amount": "1000"},
		}

		record := BuildRecord(res, est)
		require.True(t, record.EstimatedNet.Valid)
		assert.Equal(t, "950", record.EstimatedNet.Decimal.String())
		require.NotNil(t, record.EstimatedPayrollDate)
		assert.Equal(t, payroll, *record.EstimatedPayrollDate)
	})

	t.Run("the provider file's own net wins over the estimate", func(t *testing.T) {
		est := Estimate{
			Net: decimal.NullDecimal{Decimal: decimal.RequireFromString("950"), Valid: true},
		}
		res := models.MatchResult{
			Xrp:      models.Record{},
			Provider: models.Record{"proveedor": "fiserv", "amount": "1000", "net": "960"},
		}

		record := BuildRecord(res, est)
		require.True(t, record.EstimatedNet.Valid)
		assert.Equal(t, "960", record.EstimatedNet.Decimal.String())
	})

	t.Run("defaults status and level", func(t *testing.T) {
		res := models.MatchResult{
			Xrp:      models.Record{},
			Provider: models.Record{"proveedor": "fiserv"},
		}
		record := BuildRecord(res, Estimate{})
		assert.Equal(t, models.MatchStatusPending, record.Status)
		assert.Equal(t, models.MatchLevelRed, record.MatchLevel)
	})
}
