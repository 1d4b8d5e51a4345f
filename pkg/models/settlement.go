package models

// NotFoundRow is a payroll row the settlement resolver could not pair with
// an approved matching record. Missing a counterpart is data, not an error;
// Reason carries a diagnostic when the row itself was malformed.
type NotFoundRow struct {
	OriginalData Record `json:"original_data"`
	Reason       string `json:"reason,omitempty"`
}

// SettlementResult is the outcome of resolving one payroll batch.
type SettlementResult struct {
	Finded    []MatchingRecord `json:"finded"`
	NotFinded []NotFoundRow    `json:"notFinded"`
}
