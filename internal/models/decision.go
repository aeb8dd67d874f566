package models

type DecisionStatus string

const (
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
	DecisionEscalate DecisionStatus = "escalate"
)

// Decision is the normalized outcome of the decision agent for a claim.
type Decision struct {
	Status              DecisionStatus `json:"status"`
	ResolutionType      ResolutionType `json:"resolution_type"`
	RefundAmount        *float64       `json:"refund_amount"`
	Reason              string         `json:"reason"`
	ConfidenceScore     float64        `json:"confidence_score"`
	EscalationRequired  bool           `json:"escalation_required"`
	NextSteps           string         `json:"next_steps"`
	DataSourceConnected bool           `json:"data_source_connected"`
}

// RiskFor derives the risk level recorded when a claim is created.
func RiskFor(d Decision) RiskLevel {
	switch {
	case d.EscalationRequired && d.ConfidenceScore < 0.9:
		return RiskHigh
	case d.EscalationRequired:
		return RiskMedium
	default:
		return RiskLow
	}
}

// decisionStatusFor maps a claim status back onto the decision vocabulary.
func decisionStatusFor(s ClaimStatus) DecisionStatus {
	switch s {
	case StatusApproved, StatusOfferAccepted:
		return DecisionApproved
	case StatusRejected, StatusOfferRejected:
		return DecisionRejected
	default:
		return DecisionEscalate
	}
}

func Float64(v float64) *float64 { return &v }
