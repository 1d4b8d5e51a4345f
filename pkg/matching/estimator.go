package matching

import (
	"github.com/shopspring/decimal"

	"github.com/AngelMagaquian/laintapp-api/pkg/amounts"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Estimator predicts settlement net and credit date from the provider
// catalog's payout terms, used when the provider file itself carries neither.
type Estimator struct {
	providers map[string]models.Provider
}

func NewEstimator(catalog []models.Provider) *Estimator {
	byName := make(map[string]models.Provider, len(catalog))
	for _, p := range catalog {
		byName[p.Name] = p
	}
	return &Estimator{providers: byName}
}

// Estimate returns the predicted net amount and payroll date for one match
// result. Net is gross minus the card type's commission and interest
// percentages; payroll date is the file date plus the card type's payroll
// time in days. Missing catalog data leaves the corresponding field unset.
func (e *Estimator) Estimate(res models.MatchResult) Estimate {
	var est Estimate
	if res.Provider == nil {
		return est
	}

	provider, ok := e.providers[res.Provider.ProviderName()]
	if !ok {
		return est
	}
	cardType, ok := provider.FindCardType(res.Provider.StrTrim("card_type"))
	if !ok {
		return est
	}

	if gross, found := amounts.ParseField(res.Provider, "amount"); found {
		rate := decimal.NewFromFloat(cardType.PayrollCommission + cardType.PayrollInterest).Div(hundred)
		est.Net = decimal.NullDecimal{
			Decimal: gross.Sub(gross.Mul(rate)).Round(2),
			Valid:   true,
		}
	}

	if fileDate, found := firstDate(res.Provider.StrTrim("file_date"), res.FileDate); found {
		payroll := fileDate.AddDate(0, 0, cardType.PayrollTime).UTC()
		est.PayrollDate = &payroll
	}

	return est
}
