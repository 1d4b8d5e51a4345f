package matching

import (
	"github.com/AngelMagaquian/laintapp-api/pkg/compare"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/providers"
)

// Matched field names, in evaluation order. These are the values persisted
// in matchedFields, so they are part of the stored contract.
const (
	FieldMonto = "monto"
	FieldCupon = "cupon"
	FieldLote  = "lote"
	FieldTipo  = "tipo"
	FieldTPV   = "tpv"
)

// Score is the outcome of comparing one internal row against one provider row.
type Score struct {
	Level         models.MatchLevel
	MatchedFields []string
}

// ScorePair runs every applicable comparator on the pair and derives the
// match tier. The tier rules are evaluated by precedence, first hit wins:
//
//	green:  amount, type, lot and coupon all agree
//	yellow: amount, type and terminal agree with at least 4 fields total
//	orange: amount plus any of coupon/lot/type, at least 2 fields total
//	red:    everything else
func ScorePair(xrp, provider models.Record, rules providers.Rules, table *providers.Table) Score {
	montoIgual := compare.Amount(xrp, provider)
	cuponIgual := compare.StringField(xrp, provider, "cupon")
	loteIgual := compare.StringField(xrp, provider, "lote")
	tipoIgual := compare.CardType(xrp, provider, rules, table)
	tpvIgual, tpvApplicable := compare.TPV(xrp, provider, rules)

	fields := make([]string, 0, 5)
	if montoIgual {
		fields = append(fields, FieldMonto)
	}
	if cuponIgual {
		fields = append(fields, FieldCupon)
	}
	if loteIgual {
		fields = append(fields, FieldLote)
	}
	if tipoIgual {
		fields = append(fields, FieldTipo)
	}
	if tpvApplicable && tpvIgual {
		fields = append(fields, FieldTPV)
	}

	level := models.MatchLevelRed
	switch {
	case montoIgual && tipoIgual && loteIgual && cuponIgual:
		level = models.MatchLevelGreen
	case montoIgual && tipoIgual && tpvApplicable && tpvIgual && len(fields) >= 4:
		level = models.MatchLevelYellow
	case montoIgual && (cuponIgual || loteIgual || tipoIgual) && len(fields) >= 2:
		level = models.MatchLevelOrange
	}

	return Score{Level: level, MatchedFields: fields}
}
