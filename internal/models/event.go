package models

import "time"

// ClaimEvent is published on every claim creation and status change.
type ClaimEvent struct {
	ClaimID        string      `json:"claim_id"`
	CustomerID     int64       `json:"customer_id"`
	Status         ClaimStatus `json:"status"`
	PreviousStatus ClaimStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}
