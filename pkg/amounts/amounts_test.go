package amounts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
		ok    bool
	}{
		{"dot decimal string", "1234.56", "1234.56", true},
		{"comma decimal string", "1234,56", "1234.56", true},
		{"comma decimal with dot thousands", "1.234,56", "1234.56", true},
		{"plain integer string", "100", "100", true},
		{"padded string", "  99,90  ", "99.9", true},
		{"negative comma decimal", "-10,50", "-10.5", true},
		{"float64", float64(250.75), "250.75", true},
		{"int", 42, "42", true},
		{"int64", int64(7), "7", true},
		{"nil", nil, "", false},
		{"empty string", "", "", false},
		{"whitespace only", "   ", "", false},
		{"garbage", "n/a", "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestParse_Decimal(t *testing.T) {
	d := decimal.RequireFromString("10.01")
	got, ok := Parse(d)
	require.True(t, ok)
	assert.True(t, got.Equal(d))
}

func TestEqual(t *testing.T) {
	t.Run("same value across conventions", func(t *testing.T) {
		a := models.Record{"amount": "1.234,56"}
		b := models.Record{"amount": 1234.56}
		assert.True(t, Equal(a, b, "amount"))
	})

	t.Run("different values", func(t *testing.T) {
		a := models.Record{"amount": "100"}
		b := models.Record{"amount": "100.01"}
		assert.False(t, Equal(a, b, "amount"))
	})

	t.Run("one side missing", func(t *testing.T) {
		a := models.Record{"amount": "100"}
		b := models.Record{}
		assert.False(t, Equal(a, b, "amount"))
	})

	t.Run("both sides missing", func(t *testing.T) {
		assert.False(t, Equal(models.Record{}, models.Record{}, "amount"))
	})

	t.Run("unparseable side", func(t *testing.T) {
		a := models.Record{"amount": "100"}
		b := models.Record{"amount": "cien"}
		assert.False(t, Equal(a, b, "amount"))
	})
}

func TestParseFieldOrZero(t *testing.T) {
	row := models.Record{"fee": "10,5"}
	assert.Equal(t, "10.5", ParseFieldOrZero(row, "fee").String())
	assert.True(t, ParseFieldOrZero(row, "interest").IsZero())
	assert.True(t, ParseFieldOrZero(nil, "fee").IsZero())
}
