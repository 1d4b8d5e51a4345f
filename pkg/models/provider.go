package models

import (
	"strings"
	"time"

	"github.com/AngelMagaquian/laintapp-api/pkg/database"
)

// CardType carries the payout terms a provider applies to one card product.
// payroll_time is the delay in days between file date and credit date;
// interest and commission are percentages withheld from the gross amount.
type CardType struct {
	Name              string  `json:"name"`
	PayrollTime       int     `json:"payroll_time"`
	PayrollInterest   float64 `json:"payroll_interest"`
	PayrollCommission float64 `json:"payroll_commission"`
}

// Provider is a payment processor the merchant reconciles against.
type Provider struct {
	ID        string                     `json:"id" db:"id"`
	Name      string                     `json:"name" db:"name"`
	CardTypes database.JSONB[[]CardType] `json:"card_type" db:"card_types"`
	CreatedAt time.Time                  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at" db:"updated_at"`
}

// UpsertProviderRequest creates or replaces a provider's payout terms. Names
// are stored lowercased.
type UpsertProviderRequest struct {
	Name      string     `json:"name" validate:"required"`
	CardTypes []CardType `json:"card_type"`
}

// FindCardType looks up payout terms by card type name, case-insensitively.
func (p *Provider) FindCardType(name string) (CardType, bool) {
	for _, ct := range p.CardTypes.Data {
		if strings.EqualFold(ct.Name, name) {
			return ct, true
		}
	}
	return CardType{}, false
}
