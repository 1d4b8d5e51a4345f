// Package amounts parses monetary values out of untyped settlement rows.
// Provider files mix dot-decimal and comma-decimal conventions, sometimes
// with dot thousand separators ("1.234,56"); everything normalizes to an
// exact decimal before any comparison or sum.
package amounts

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

// Parse converts a raw cell value into an exact decimal. Returns false when
// the value is missing or not numeric; it never panics and never guesses.
func Parse(value any) (decimal.Decimal, bool) {
	switch t := value.(type) {
	case nil:
		return decimal.Decimal{}, false
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case decimal.Decimal:
		return t, true
	case string:
		return parseString(t)
	default:
		return decimal.Decimal{}, false
	}
}

// ParseField parses the named field of a record.
func ParseField(r models.Record, key string) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Decimal{}, false
	}
	return Parse(r[key])
}

// ParseFieldOrZero is ParseField with a zero default, for summing optional
// fee components.
func ParseFieldOrZero(r models.Record, key string) decimal.Decimal {
	d, ok := ParseField(r, key)
	if !ok {
		return decimal.Zero
	}
	return d
}

// Equal reports whether the named field of both records parses to the same
// numeric value. Either side missing or unparseable means not equal.
func Equal(a, b models.Record, key string) bool {
	da, ok := ParseField(a, key)
	if !ok {
		return false
	}
	db, ok := ParseField(b, key)
	if !ok {
		return false
	}
	return da.Equal(db)
}

func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	// Comma present: treat it as the decimal separator and any dots as
	// thousand separators ("1.234,56" -> "1234.56").
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
