package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableResolve(t *testing.T) {
	table := NewTable(nil)

	tests := []struct {
		provider string
		rules    Rules
	}{
		{"fiserv", Rules{TypeEquality: TypeWallet, TPVApplicable: true}},
		{"FISERV", Rules{TypeEquality: TypeWallet, TPVApplicable: true}},
		{"nave", Rules{TypeEquality: TypeAlwaysEqual, TPVApplicable: true}},
		{"naranja", Rules{TypeEquality: TypeAlwaysEqual, TPVApplicable: true}},
		{"mercado_pago", Rules{TypeEquality: TypeStrict, TPVApplicable: false}},
		{"modo", Rules{TypeEquality: TypeStrict, TPVApplicable: true}},
		{"something_new", Rules{TypeEquality: TypeStrict, TPVApplicable: true}},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			assert.Equal(t, tt.rules, table.Resolve(tt.provider))
		})
	}
}

func TestIsWalletType(t *testing.T) {
	table := NewTable(nil)
	assert.True(t, table.IsWalletType("MODO"))
	assert.True(t, table.IsWalletType("personal_pay"))
	assert.True(t, table.IsWalletType(" uala "))
	assert.False(t, table.IsWalletType("VISA"))

	custom := NewTable([]string{"BIMO"})
	assert.True(t, custom.IsWalletType("bimo"))
	assert.False(t, custom.IsWalletType("MODO"))
}

func TestSettlesByTransactionID(t *testing.T) {
	for _, p := range []string{"nave", "mercado_pago", "modo", "cabal", "amex", " NAVE "} {
		assert.True(t, SettlesByTransactionID(p), p)
	}
	for _, p := range []string{"fiserv", "naranja", "", "visa"} {
		assert.False(t, SettlesByTransactionID(p), p)
	}
}

func TestRemapFiservCardLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Visa Crédito", "VISA"},
		{"Mastercard Crédito", "MASTERCARD"},
		{"Mastercard Debit", "Master Debit"},
		{"Visa Débito", "VISA DEBITO"},
		{" Visa Crédito ", "VISA"},
		{"AMEX", "AMEX"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RemapFiservCardLabel(tt.label))
	}
}
