// Package compare holds the pure field comparators the match scorer is
// built from. Every comparator takes two untyped rows and answers a single
// yes/no question; provider quirks come in through the rules table, never
// as inline special cases.
package compare

import (
	"strings"

	"github.com/AngelMagaquian/laintapp-api/pkg/amounts"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/normalizers"
	"github.com/AngelMagaquian/laintapp-api/pkg/providers"
)

// Amount reports numeric equality of the amount fields. Both sides are
// coerced through the decimal-comma tolerant parser and compared exactly;
// there is deliberately no tolerance.
func Amount(xrp, provider models.Record) bool {
	return amounts.Equal(xrp, provider, "amount")
}

// StringField reports equality of a field after string coercion, trimming
// and lowercasing. Two absent values do not count as a match.
func StringField(xrp, provider models.Record, field string) bool {
	a := normalizers.Fold(xrp.Str(field))
	b := normalizers.Fold(provider.Str(field))
	if a == "" && b == "" {
		return false
	}
	return a == b
}

// CardType applies the provider's type-equality rule. For wallet-rule
// providers (fiserv), a MODO wallet payment on the internal side must name
// a wallet in the allow-list; any other internal type is accepted as-is
// because the provider file carries no comparable type string.
func CardType(xrp, provider models.Record, rules providers.Rules, table *providers.Table) bool {
	switch rules.TypeEquality {
	case providers.TypeAlwaysEqual:
		return true
	case providers.TypeWallet:
		if strings.EqualFold(xrp.StrTrim("card_type"), "MODO") {
			return table.IsWalletType(xrp.StrTrim("card_type"))
		}
		return true
	default:
		return StringField(xrp, provider, "card_type")
	}
}

// TPV reports terminal-id equality. Returns (equal, applicable): providers
// with unreliable terminal ids are excluded from the comparison entirely
// rather than counted as a mismatch.
func TPV(xrp, provider models.Record, rules providers.Rules) (bool, bool) {
	if !rules.TPVApplicable {
		return false, false
	}
	return StringField(xrp, provider, "tpv"), true
}
