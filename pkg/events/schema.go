package events

// EventType defines the type of event
type EventType string

const (
	// Matching events
	EventTypeMatchingSaved    EventType = "matching.saved"
	EventTypeMatchingReviewed EventType = "matching.reviewed"

	// Settlement events
	EventTypeSettlementCompleted EventType = "settlement.completed"

	// Taxes events
	EventTypeTaxesAggregated EventType = "taxes.aggregated"
)

// MatchingSavedPayload describes one persisted matching pass
type MatchingSavedPayload struct {
	MatchedCount      int `json:"matched_count"`
	UnmatchedInternal int `json:"unmatched_internal"`
}

// MatchingReviewedPayload describes a manual review decision
type MatchingReviewedPayload struct {
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by,omitempty"`
}

// SettlementCompletedPayload describes one settlement pass
type SettlementCompletedPayload struct {
	FindedCount    int `json:"finded_count"`
	NotFindedCount int `json:"not_finded_count"`
}

// TaxesAggregatedPayload describes one appended batch of tax aggregate rows
type TaxesAggregatedPayload struct {
	Rows int `json:"rows"`
}
