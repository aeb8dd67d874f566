package models

import "fmt"

const (
	NextStepsActionRequired   = "Action Required: Please accept or reject the updated offer."
	NextStepsResolvedManually = "Case resolved manually by admin."
	NextStepsManualReview     = "Manual review required."

	manualActionReason = "Manual Admin Action"
	manualUpdateReason = "Manual update"
)

// InitialStatus assigns the first status of a claim created from a decision.
func InitialStatus(d Decision) ClaimStatus {
	switch d.Status {
	case DecisionApproved:
		return StatusApproved
	case DecisionRejected:
		return StatusRejected
	default:
		return StatusEscalate
	}
}

// IsTerminal reports whether no modeled transition leaves s.
func IsTerminal(s ClaimStatus) bool {
	switch s {
	case StatusRejected, StatusOfferAccepted, StatusOfferRejected:
		return true
	}
	return false
}

// AdminTransition resolves the status an admin override lands on.
// Approving never finalizes a claim: it becomes an offer the customer must answer.
func AdminTransition(from, target ClaimStatus) (ClaimStatus, error) {
	switch target {
	case StatusApproved:
		if from == StatusPending || from == StatusEscalate {
			return StatusWaitingUserAction, nil
		}
	case StatusRejected:
		if !IsTerminal(from) {
			return StatusRejected, nil
		}
	}
	return "", fmt.Errorf("%w: admin %s from %s", ErrInvalidTransition, target, from)
}

// OfferTransition resolves the status after the customer answers an offer.
func OfferTransition(from ClaimStatus, accepted bool) (ClaimStatus, error) {
	if from != StatusWaitingUserAction {
		return "", fmt.Errorf("%w: offer response from %s", ErrInvalidTransition, from)
	}
	if accepted {
		return StatusOfferAccepted, nil
	}
	return StatusOfferRejected, nil
}

// ApplyUpdate builds the record that results from u. The note, if any, is
// appended to the log; the stored decision reason is left untouched.
func ApplyUpdate(c Claim, u ClaimUpdate) Claim {
	out := c
	out.Status = u.Status
	if u.Note != nil {
		out.AdminNotes = append(append([]AdminNote(nil), c.AdminNotes...), *u.Note)
	}

	nextSteps := NextStepsResolvedManually
	if u.Status == StatusWaitingUserAction {
		nextSteps = NextStepsActionRequired
	}

	var d Decision
	if c.AIDecision != nil {
		d = *c.AIDecision
	} else {
		d = Decision{
			ResolutionType:      ResolutionNone,
			RefundAmount:        Float64(0),
			Reason:              manualActionReason,
			ConfidenceScore:     1,
			EscalationRequired:  false,
			DataSourceConnected: true,
		}
	}
	d.Status = decisionStatusFor(u.Status)
	d.NextSteps = nextSteps
	if u.ResolutionType != nil {
		d.ResolutionType = *u.ResolutionType
	}
	if u.RefundAmount != nil {
		d.RefundAmount = Float64(*u.RefundAmount)
	}
	out.AIDecision = &d
	return out
}

// DisplayReason renders the decision reason with every note layered on top,
// newest outermost.
func DisplayReason(c Claim) string {
	reason := manualUpdateReason
	if c.AIDecision != nil {
		reason = c.AIDecision.Reason
	}
	for _, n := range c.AdminNotes {
		reason = fmt.Sprintf("Admin Update: %s. (Original: %s)", n.Note, reason)
	}
	return reason
}
