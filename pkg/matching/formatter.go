package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AngelMagaquian/laintapp-api/pkg/amounts"
	"github.com/AngelMagaquian/laintapp-api/pkg/database"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

// Estimate carries the net amount and credit date predicted at save time
// from the provider's payout terms. Settlement later checks reality against
// these.
type Estimate struct {
	Net         decimal.NullDecimal
	PayrollDate *time.Time
}

// FormatData normalizes a match result (or an already persisted row) into
// the canonical stored shape. The function is idempotent: canonical fields
// are re-derived from the embedded xrp/provider bags when present and kept
// as-is otherwise, so a second application changes nothing.
func FormatData(raw models.Record) models.Record {
	xrp := subRecord(raw, "xrp")
	provider := subRecord(raw, "provider")

	out := make(models.Record, len(raw)+4)
	for k, v := range raw {
		out[k] = v
	}

	name := provider.First("proveedor", "provider")
	if name == "" {
		name = raw.StrTrim("provider_name")
	}
	if name == "" {
		name = "unknown"
	}
	out["provider_name"] = name

	txID := provider.StrTrim("transaction_id")
	if txID == "" {
		txID = xrp.StrTrim("posnet")
	}
	if txID == "" {
		txID = raw.StrTrim("transaction_id")
	}
	if txID == "" {
		txID = "unknown"
	}
	out["transaction_id"] = txID

	if fileDate, ok := firstDate(provider.StrTrim("file_date"), xrp.StrTrim("file_date"), raw.StrTrim("file_date")); ok {
		out["file_date"] = fileDate.Format(time.RFC3339)
	}

	if amount, ok := pickAmount(provider, raw, "amount"); ok {
		out["amount"] = amount
	}
	if v := pickString(provider, raw, "card_type"); v != "" {
		out["card_type"] = v
	}
	if v := pickStringWithXrp(provider, xrp, raw, "cupon"); v != "" {
		out["cupon"] = v
	}
	if v := pickStringWithXrp(provider, xrp, raw, "lote"); v != "" {
		out["lote"] = v
	}
	if v := pickString(provider, raw, "tpv"); v != "" {
		out["tpv"] = v
	}

	if sucursal := xrp.StrTrim("sucursal"); sucursal != "" {
		out["sucursal"] = sucursal
	} else if sucursal := raw.StrTrim("sucursal"); sucursal != "" {
		out["sucursal"] = sucursal
	}

	// The provider row may embed the original file's net and credit date.
	if net, ok := amounts.ParseField(provider, "net"); ok {
		out["estimated_net"] = net
	} else if net, ok := amounts.ParseField(provider, "neto"); ok {
		out["estimated_net"] = net
	} else if net, ok := amounts.ParseField(raw, "estimated_net"); ok {
		out["estimated_net"] = net
	}

	if credit, ok := firstDate(provider.StrTrim("credit_date"), provider.StrTrim("fecha_acreditacion"), raw.StrTrim("estimated_payrollDate")); ok {
		out["estimated_payrollDate"] = credit.Format(time.RFC3339)
	}

	if tt := raw.StrTrim("transaction_type"); tt != "" {
		out["transaction_type"] = tt
	} else {
		out["transaction_type"] = xrp.TransactionType()
	}

	return out
}

// BuildRecord converts one match result into its persisted form, filling
// estimated settlement fields from the provider row when embedded and from
// the caller-supplied estimate otherwise.
func BuildRecord(res models.MatchResult, est Estimate) models.MatchingRecord {
	raw := models.Record{
		"xrp":              map[string]any(res.Xrp),
		"transaction_type": res.TransactionType,
	}
	if res.Provider != nil {
		raw["provider"] = map[string]any(res.Provider)
	}
	if res.FileDate != "" {
		raw["file_date"] = res.FileDate
	}
	canon := FormatData(raw)

	now := time.Now().UTC()
	record := models.MatchingRecord{
		ID:              uuid.New().String(),
		Xrp:             database.NewJSONB(res.Xrp),
		Provider:        database.NewJSONB(res.Provider),
		MatchLevel:      res.MatchLevel,
		MatchedFields:   database.NewJSONB(res.MatchedFields),
		Status:          res.Status,
		ProviderName:    canon.Str("provider_name"),
		TransactionID:   canon.Str("transaction_id"),
		TransactionType: canon.Str("transaction_type"),
		ReviewedBy:      res.ReviewedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if record.Status == "" {
		record.Status = models.MatchStatusPending
	}
	if record.MatchLevel == "" {
		record.MatchLevel = models.MatchLevelRed
	}

	if t, ok := models.ParseDate(canon.StrTrim("file_date")); ok {
		record.FileDate = &t
	}
	if amount, ok := amounts.ParseField(canon, "amount"); ok {
		record.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
	record.CardType = optional(canon.StrTrim("card_type"))
	record.Cupon = optional(canon.StrTrim("cupon"))
	record.Lote = optional(canon.StrTrim("lote"))
	record.TPV = optional(canon.StrTrim("tpv"))
	record.Sucursal = optional(canon.StrTrim("sucursal"))

	if net, ok := amounts.ParseField(canon, "estimated_net"); ok {
		record.EstimatedNet = decimal.NullDecimal{Decimal: net, Valid: true}
	} else {
		record.EstimatedNet = est.Net
	}
	if t, ok := models.ParseDate(canon.StrTrim("estimated_payrollDate")); ok {
		record.EstimatedPayrollDate = &t
	} else {
		record.EstimatedPayrollDate = est.PayrollDate
	}

	return record
}

func subRecord(raw models.Record, key string) models.Record {
	switch v := raw[key].(type) {
	case models.Record:
		return v
	case map[string]any:
		return models.Record(v)
	default:
		return nil
	}
}

func firstDate(values ...string) (time.Time, bool) {
	for _, v := range values {
		if t, ok := models.ParseDate(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func pickAmount(provider, raw models.Record, key string) (decimal.Decimal, bool) {
	if d, ok := amounts.ParseField(provider, key); ok {
		return d, true
	}
	return amounts.ParseField(raw, key)
}

func pickString(provider, raw models.Record, key string) string {
	if v := provider.StrTrim(key); v != "" {
		return v
	}
	return raw.StrTrim(key)
}

func pickStringWithXrp(provider, xrp, raw models.Record, key string) string {
	if v := provider.StrTrim(key); v != "" {
		return v
	}
	if v := xrp.StrTrim(key); v != "" {
		return v
	}
	return raw.StrTrim(key)
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
