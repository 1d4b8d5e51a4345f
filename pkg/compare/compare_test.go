package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/providers"
)

func TestStringField(t *testing.T) {
	t.Run("equal after trim and lowercase", func(t *testing.T) {
		a := models.Record{"lote": "  0123 "}
		b := models.Record{"lote": "0123"}
		assert.True(t, StringField(a, b, "lote"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		a := models.Record{"card_type": "VISA"}
		b := models.Record{"card_type": "visa"}
		assert.True(t, StringField(a, b, "card_type"))
	})

	t.Run("numeric values coerce to strings", func(t *testing.T) {
		a := models.Record{"cupon": 100}
		b := models.Record{"cupon": "100"}
		assert.True(t, StringField(a, b, "cupon"))
	})

	t.Run("both absent is not a match", func(t *testing.T) {
		assert.False(t, StringField(models.Record{}, models.Record{}, "cupon"))
	})

	t.Run("one side absent is not a match", func(t *testing.T) {
		a := models.Record{"cupon": "7"}
		assert.False(t, StringField(a, models.Record{}, "cupon"))
	})
}

func TestCardType(t *testing.T) {
	table := providers.NewTable(nil)

	t.Run("always-equal rule ignores values", func(t *testing.T) {
		rules := providers.Rules{TypeEquality: providers.TypeAlwaysEqual}
		a := models.Record{"card_type": "VISA"}
		b := models.Record{"card_type": "MASTERCARD"}
		assert.True(t, CardType(a, b, rules, table))
	})

	t.Run("wallet rule accepts non-wallet internal types", func(t *testing.T) {
		rules := providers.Rules{TypeEquality: providers.TypeWallet}
		a := models.Record{"card_type": "VISA"}
		b := models.Record{"card_type": "whatever"}
		assert.True(t, CardType(a, b, rules, table))
	})

	t.Run("wallet rule checks MODO against the allow-list", func(t *testing.T) {
		rules := providers.Rules{TypeEquality: providers.TypeWallet}
		a := models.Record{"card_type": "MODO"}
		assert.True(t, CardType(a, models.Record{}, rules, table))
	})

	t.Run("wallet rule rejects MODO outside a custom allow-list", func(t *testing.T) {
		custom := providers.NewTable([]string{"PERSONAL_PAY"})
		rules := providers.Rules{TypeEquality: providers.TypeWallet}
		a := models.Record{"card_type": "MODO"}
		assert.False(t, CardType(a, models.Record{}, rules, custom))
	})

	t.Run("strict rule compares values", func(t *testing.T) {
		rules := providers.Rules{TypeEquality: providers.TypeStrict}
		a := models.Record{"card_type": "Visa"}
		b := models.Record{"card_type": "VISA"}
		assert.True(t, CardType(a, b, rules, table))

		c := models.Record{"card_type": "MASTERCARD"}
		assert.False(t, CardType(a, c, rules, table))
	})
}

func TestTPV(t *testing.T) {
	t.Run("not applicable for unreliable providers", func(t *testing.T) {
		rules := providers.Rules{TPVApplicable: false}
		a := models.Record{"tpv": "123"}
		b := models.Record{"tpv": "123"}
		_, applicable := TPV(a, b, rules)
		assert.False(t, applicable)
	})

	t.Run("applicable and equal", func(t *testing.T) {
		rules := providers.Rules{TPVApplicable: true}
		a := models.Record{"tpv": "123"}
		b := models.Record{"tpv": " 123 "}
		equal, applicable := TPV(a, b, rules)
		assert.True(t, applicable)
		assert.True(t, equal)
	})

	t.Run("applicable and different", func(t *testing.T) {
		rules := providers.Rules{TPVApplicable: true}
		a := models.Record{"tpv": "123"}
		b := models.Record{"tpv": "456"}
		equal, applicable := TPV(a, b, rules)
		assert.True(t, applicable)
		assert.False(t, equal)
	})
}
