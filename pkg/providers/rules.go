// Package providers centralizes the per-provider quirks the matching and
// settlement flows depend on: how card types compare, whether the terminal
// id is trustworthy, and which providers settle by transaction id.
package providers

import "strings"

// TypeEquality selects how card_type is compared for a provider.
type TypeEquality int

const (
	// TypeStrict compares card types as plain normalized strings.
	TypeStrict TypeEquality = iota
	// TypeAlwaysEqual treats card types as equal unconditionally; used for
	// providers whose files carry no comparable type strings.
	TypeAlwaysEqual
	// TypeWallet treats card types as equal unless the internal row reports
	// a MODO wallet payment, in which case the wallet type must belong to
	// the configured digital-wallet set.
	TypeWallet
)

// Rules are the comparison rules resolved once per batch for one provider.
type Rules struct {
	TypeEquality  TypeEquality
	TPVApplicable bool
}

// Table resolves provider names to their rules. The wallet set grows as new
// digital wallets appear in fiserv files, so it is configuration, not code.
type Table struct {
	walletTypes map[string]struct{}
}

// DefaultWalletTypes is the initial digital-wallet allow-list.
var DefaultWalletTypes = []string{"PERSONAL_PAY", "MODO", "UALA"}

// TransactionIDProviders are the providers whose payroll files settle by
// exact transaction id. Anything else needs a dedicated resolver.
var TransactionIDProviders = []string{"nave", "mercado_pago", "modo", "cabal", "amex"}

// NewTable builds a rules table with the given wallet allow-list. A nil or
// empty list falls back to DefaultWalletTypes.
func NewTable(walletTypes []string) *Table {
	if len(walletTypes) == 0 {
		walletTypes = DefaultWalletTypes
	}
	set := make(map[string]struct{}, len(walletTypes))
	for _, w := range walletTypes {
		set[strings.ToUpper(strings.TrimSpace(w))] = struct{}{}
	}
	return &Table{walletTypes: set}
}

// Resolve returns the rules for a provider name (case-insensitive).
func (t *Table) Resolve(provider string) Rules {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "fiserv":
		return Rules{TypeEquality: TypeWallet, TPVApplicable: true}
	case "nave", "naranja":
		return Rules{TypeEquality: TypeAlwaysEqual, TPVApplicable: true}
	case "mercado_pago":
		return Rules{TypeEquality: TypeStrict, TPVApplicable: false}
	default:
		return Rules{TypeEquality: TypeStrict, TPVApplicable: true}
	}
}

// IsWalletType reports membership in the digital-wallet allow-list.
func (t *Table) IsWalletType(cardType string) bool {
	_, ok := t.walletTypes[strings.ToUpper(strings.TrimSpace(cardType))]
	return ok
}

// SettlesByTransactionID reports whether a provider's payroll rows resolve
// by exact transaction id lookup.
func SettlesByTransactionID(provider string) bool {
	p := strings.ToLower(strings.TrimSpace(provider))
	for _, known := range TransactionIDProviders {
		if p == known {
			return true
		}
	}
	return false
}

// fiservCardLabels remaps the card type labels fiserv payroll files report
// to the values stored on matching records.
var fiservCardLabels = map[string]string{
	"Visa Crédito":      "VISA",
	"Mastercard Crédito": "MASTERCARD",
	"Mastercard Debit":  "Master Debit",
	"Visa Débito":       "VISA DEBITO",
}

// RemapFiservCardLabel translates a fiserv payroll card label. Unknown
// labels pass through untouched.
func RemapFiservCardLabel(label string) string {
	if mapped, ok := fiservCardLabels[strings.TrimSpace(label)]; ok {
		return mapped
	}
	return strings.TrimSpace(label)
}
