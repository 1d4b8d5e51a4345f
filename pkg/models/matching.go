package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AngelMagaquian/laintapp-api/pkg/database"
)

// MatchLevel classifies the quality of a candidate pairing.
type MatchLevel string

const (
	MatchLevelGreen  MatchLevel = "green"
	MatchLevelYellow MatchLevel = "yellow"
	MatchLevelOrange MatchLevel = "orange"
	MatchLevelRed    MatchLevel = "red"
)

// Weight orders levels for best-candidate comparison: green > yellow > orange > red.
func (l MatchLevel) Weight() int {
	switch l {
	case MatchLevelGreen:
		return 3
	case MatchLevelYellow:
		return 2
	case MatchLevelOrange:
		return 1
	default:
		return 0
	}
}

// MatchStatus is the lifecycle state of a persisted matching record,
// independent of its match level.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusApproved MatchStatus = "approved"
	MatchStatusRejected MatchStatus = "rejected"
	MatchStatusManual   MatchStatus = "manual"
	MatchStatusSettled  MatchStatus = "settled"
)

// CanTransitionTo enforces the record lifecycle: pending moves to
// approved/rejected/manual under review, and only approved records settle.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	switch s {
	case MatchStatusPending:
		return next == MatchStatusApproved || next == MatchStatusRejected || next == MatchStatusManual
	case MatchStatusApproved:
		return next == MatchStatusSettled
	default:
		return false
	}
}

// MatchResult is the ephemeral output of one matching pass for one internal row.
type MatchResult struct {
	ID              int        `json:"id"`
	Xrp             Record     `json:"xrp"`
	Provider        Record     `json:"provider"`
	MatchLevel      MatchLevel `json:"matchLevel"`
	MatchedFields   []string   `json:"matchedFields"`
	Status          MatchStatus `json:"status"`
	TransactionType string     `json:"transaction_type"`
	FileDate        string     `json:"file_date,omitempty"`
	ReviewedBy      *string    `json:"reviewedBy,omitempty"`
}

// MatchingRecord is the persisted form of a match result. Settlement-only
// fields (amount_net, payroll_date) stay null until a payroll file resolves
// the record.
type MatchingRecord struct {
	ID                   string                    `json:"id" db:"id"`
	Xrp                  database.JSONB[Record]    `json:"xrp" db:"xrp"`
	Provider             database.JSONB[Record]    `json:"provider" db:"provider"`
	MatchLevel           MatchLevel                `json:"matchLevel" db:"match_level"`
	MatchedFields        database.JSONB[[]string]  `json:"matchedFields" db:"matched_fields"`
	Status               MatchStatus               `json:"status" db:"status"`
	ProviderName         string                    `json:"provider_name" db:"provider_name"`
	TransactionID        string                    `json:"transaction_id" db:"transaction_id"`
	TransactionType      string                    `json:"transaction_type" db:"transaction_type"`
	FileDate             *time.Time                `json:"file_date,omitempty" db:"file_date"`
	Amount               decimal.NullDecimal       `json:"amount" db:"amount"`
	CardType             *string                   `json:"card_type,omitempty" db:"card_type"`
	Cupon                *string                   `json:"cupon,omitempty" db:"cupon"`
	Lote                 *string                   `json:"lote,omitempty" db:"lote"`
	TPV                  *string                   `json:"tpv,omitempty" db:"tpv"`
	Sucursal             *string                   `json:"sucursal,omitempty" db:"sucursal"`
	EstimatedNet         decimal.NullDecimal       `json:"estimated_net" db:"estimated_net"`
	EstimatedPayrollDate *time.Time                `json:"estimated_payrollDate,omitempty" db:"estimated_payroll_date"`
	AmountNet            decimal.NullDecimal       `json:"amount_net" db:"amount_net"`
	PayrollDate          *time.Time                `json:"payrollDate,omitempty" db:"payroll_date"`
	ReviewedBy           *string                   `json:"reviewedBy,omitempty" db:"reviewed_by"`
	CreatedAt            time.Time                 `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time                 `json:"updated_at" db:"updated_at"`
}

// NotMatchingRecord stores a row that received no counterpart in a matching
// pass, kept for manual review.
type NotMatchingRecord struct {
	ID              string                 `json:"id" db:"id"`
	OriginalData    database.JSONB[Record] `json:"original_data" db:"original_data"`
	ProviderName    string                 `json:"provider_name" db:"provider_name"`
	FileDate        *time.Time             `json:"file_date,omitempty" db:"file_date"`
	TransactionType string                 `json:"transaction_type" db:"transaction_type"`
	ReviewedBy      *string                `json:"reviewedBy,omitempty" db:"reviewed_by"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
}

// DayCount is a per-day tally of unmatched rows.
type DayCount struct {
	Date  string `json:"date" db:"date"`
	Total int    `json:"total" db:"total"`
}
