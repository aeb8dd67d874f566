package interfaces

import (
	"context"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

// DecisionAgent produces a decision for a claim. Implementations always
// return a well-formed decision.
type DecisionAgent interface {
	RequestDecision(ctx context.Context, input models.ClaimInput, oc models.OrderContext) models.Decision
}
