package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

const minIssueLength = 5

// Submission is the outcome of a claim submitted by a customer.
type Submission struct {
	Claim    models.Claim    `json:"claim"`
	Decision models.Decision `json:"decision"`
}

// Intake runs a new claim through order lookup, the decision agent and the
// lifecycle controller.
type Intake struct {
	lookup    *OrderLookup
	agent     interfaces.DecisionAgent
	lifecycle *LifecycleController
}

func NewIntake(lookup *OrderLookup, agent interfaces.DecisionAgent, lifecycle *LifecycleController) *Intake {
	return &Intake{lookup: lookup, agent: agent, lifecycle: lifecycle}
}

func (i *Intake) Submit(ctx context.Context, input models.ClaimInput) (Submission, error) {
	input, err := ValidateClaimInput(input)
	if err != nil {
		return Submission{}, err
	}

	oc := i.lookup.ResolveOrder(ctx, input.OrderID)
	decision := i.agent.RequestDecision(ctx, input, oc)
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}

	claim, err := i.lifecycle.CreateFromDecision(ctx, input, decision)
	if err != nil {
		return Submission{}, err
	}
	return Submission{Claim: claim, Decision: decision}, nil
}

// ValidateClaimInput normalizes a submission and rejects incomplete ones.
func ValidateClaimInput(input models.ClaimInput) (models.ClaimInput, error) {
	input.IssueDescription = strings.TrimSpace(input.IssueDescription)
	if input.RequestedResolution == "" {
		input.RequestedResolution = models.ResolutionNotSure
	}

	switch {
	case input.OrderID <= 0:
		return input, fmt.Errorf("%w: order id must be a positive number", models.ErrInvalidInput)
	case input.CustomerID <= 0:
		return input, fmt.Errorf("%w: customer id must be a positive number", models.ErrInvalidInput)
	case len([]rune(input.IssueDescription)) < minIssueLength:
		return input, fmt.Errorf("%w: issue description must be at least %d characters", models.ErrInvalidInput, minIssueLength)
	case !input.RequestedResolution.Valid():
		return input, fmt.Errorf("%w: unknown requested resolution %q", models.ErrInvalidInput, input.RequestedResolution)
	}
	return input, nil
}
