package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxesDeductions is one per-provider, per-date aggregate of the fee and tax
// components withheld across a settled batch. Rows are append-only; repeated
// runs over the same window add rows, they never merge.
type TaxesDeductions struct {
	ID                    string          `json:"id" db:"id"`
	Provider              string          `json:"provider" db:"provider"`
	Date                  time.Time       `json:"date" db:"date"`
	CostoServicio         decimal.Decimal `json:"costo_servicio" db:"costo_servicio"`
	IVA                   decimal.Decimal `json:"iva" db:"iva"`
	IIBB                  decimal.Decimal `json:"iibb" db:"iibb"`
	DescuentosFinancieros decimal.Decimal `json:"descuentos_financieros" db:"descuentos_financieros"`
	ImpCreditoDebito      decimal.Decimal `json:"imp_credito_debito" db:"imp_credito_debito"`
	PerIVA                decimal.Decimal `json:"per_iva" db:"per_iva"`
	OtrosImp              decimal.Decimal `json:"otros_imp" db:"otros_imp"`
	OtrosAran             decimal.Decimal `json:"otros_aran" db:"otros_aran"`
	Count                 int             `json:"count" db:"count"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// TaxComponentFields are the payroll-row columns summed into an aggregate.
var TaxComponentFields = []string{
	"costo_servicio",
	"iva",
	"iibb",
	"descuentos_financieros",
	"imp_credito_debito",
	"per_iva",
	"otros_imp",
	"otros_aran",
}

// AddComponent accumulates one summed component by its column name. Names
// outside TaxComponentFields are ignored.
func (t *TaxesDeductions) AddComponent(field string, value decimal.Decimal) {
	switch field {
	case "costo_servicio":
		t.CostoServicio = t.CostoServicio.Add(value)
	case "iva":
		t.IVA = t.IVA.Add(value)
	case "iibb":
		t.IIBB = t.IIBB.Add(value)
	case "descuentos_financieros":
		t.DescuentosFinancieros = t.DescuentosFinancieros.Add(value)
	case "imp_credito_debito":
		t.ImpCreditoDebito = t.ImpCreditoDebito.Add(value)
	case "per_iva":
		t.PerIVA = t.PerIVA.Add(value)
	case "otros_imp":
		t.OtrosImp = t.OtrosImp.Add(value)
	case "otros_aran":
		t.OtrosAran = t.OtrosAran.Add(value)
	}
}
