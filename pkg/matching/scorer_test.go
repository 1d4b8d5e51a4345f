package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/providers"
)

func TestScorePair(t *testing.T) {
	table := providers.NewTable(nil)
	strict := providers.Rules{TypeEquality: providers.TypeStrict, TPVApplicable: true}

	t.Run("green when amount, type, lot and coupon agree", func(t *testing.T) {
		xrp := models.Record{
			"amount": "1500.00", "card_type": "VISA", "lote": "12", "cupon": "345", "tpv": "900",
		}
		provider := models.Record{
			"amount": "1500", "card_type": "visa", "lote": "12", "cupon": "345", "tpv": "900",
		}

		score := ScorePair(xrp, provider, strict, table)
		assert.Equal(t, models.MatchLevelGreen, score.Level)
		assert.Equal(t, []string{FieldMonto, FieldCupon, FieldLote, FieldTipo, FieldTPV}, score.MatchedFields)
	})

	t.Run("green does not require the terminal", func(t *testing.T) {
		xrp := models.Record{
			"amount": "1500", "card_type": "VISA", "lote": "12", "cupon": "345", "tpv": "900",
		}
		provider := models.Record{
			"amount": "1500", "card_type": "VISA", "lote": "12", "cupon": "345", "tpv": "901",
		}

		score := ScorePair(xrp, provider, strict, table)
		assert.Equal(t, models.MatchLevelGreen, score.Level)
		assert.Equal(t, []string{FieldMonto, FieldCupon, FieldLote, FieldTipo}, score.MatchedFields)
	})

	t.Run("yellow when the coupon disagrees but the terminal confirms", func(t *testing.T) {
		xrp := models.Record{
			"amount": "1500", "card_type": "VISA", "lote": "12", "cupon": "345", "tpv": "900",
		}
		provider := models.Record{
			"amount": "1500", "card_type": "VISA", "lote": "12", "cupon": "999", "tpv": "900",
		}

		score := ScorePair(xrp, provider, strict, table)
		assert.Equal(t, models.MatchLevelYellow, score.Level)
		assert.Equal(t, []string{FieldMonto, FieldLote, FieldTipo, FieldTPV}, score.MatchedFields)
	})

	t.Run("orange when only amount and coupon agree", func(t *testing.T) {
		xrp := models.Record{
			"amount": "1500", "card_type": "VISA", "cupon": "345",
		}
		provider := models.Record{
			"amount": "1500", "card_type": "MASTERCARD", "cupon": "345",
		}

		score := ScorePair(xrp, provider, strict, table)
		assert.Equal(t, models.MatchLevelOrange, score.Level)
		assert.Equal(t, []string{FieldMonto, FieldCupon}, score.MatchedFields)
	})

	t.Run("red when the amount disagrees", func(t *testing.T) {
		xrp := models.Record{
			"amount": "1500", "card_type": "VISA", "lote": "12", "cupon": "345", "tpv": "900",
		}
		provider := models.Record{
			"amount": "1500.01", "card_type": "VISA", "lote": "12", "cupon": "345", "tpv": "900",
		}

		score := ScorePair(xrp, provider, strict, table)
		assert.Equal(t, models.MatchLevelRed, score.Level)
	})

	t.Run("red when amount alone agrees", func(t *testing.T) {
		xrp := models.Record{"amount": "1500", "card_type": "VISA"}
		provider := models.Record{"amount": "1500", "card_type": "MASTERCARD"}

		score := ScorePair(xrp, provider, strict, table)
		assert.Equal(t, models.MatchLevelRed, score.Level)
		assert.Equal(t, []string{FieldMonto}, score.MatchedFields)
	})

	t.Run("inapplicable terminal never counts as a field", func(t *testing.T) {
		noTPV := providers.Rules{TypeEquality: providers.TypeStrict, TPVApplicable: false}
		xrp := models.Record{"amount": "1500", "card_type": "VISA", "tpv": "900"}
		provider := models.Record{"amount": "1500", "card_type": "VISA", "tpv": "900"}

		score := ScorePair(xrp, provider, noTPV, table)
		assert.Equal(t, []string{FieldMonto, FieldTipo}, score.MatchedFields)
		assert.Equal(t, models.MatchLevelOrange, score.Level)
	})

	t.Run("always-equal type rule supplies the second field for orange", func(t *testing.T) {
		lenientType := providers.Rules{TypeEquality: providers.TypeAlwaysEqual, TPVApplicable: true}
		xrp := models.Record{"amount": "1500"}
		provider := models.Record{"amount": "1500"}

		score := ScorePair(xrp, provider, lenientType, table)
		assert.Equal(t, models.MatchLevelOrange, score.Level)
		assert.Equal(t, []string{FieldMonto, FieldTipo}, score.MatchedFields)
	})
}
