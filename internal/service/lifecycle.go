package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

const (
	defaultAdminAuthor = "admin"
	customerAuthor     = "customer"

	offerAcceptedNote = "User ACCEPTED the offer."
	offerRejectedNote = "User REJECTED the offer."
)

// AdminOverride is a manual decision submitted from the admin dashboard.
type AdminOverride struct {
	Target         models.ClaimStatus
	ResolutionType *models.ResolutionType
	RefundAmount   *float64
	Note           string
	Author         string
}

// LifecycleController owns every claim status change.
type LifecycleController struct {
	repo      interfaces.ClaimRepository
	locker    interfaces.ClaimLocker
	publisher interfaces.EventPublisher
	now       func() time.Time
}

func NewLifecycleController(repo interfaces.ClaimRepository, locker interfaces.ClaimLocker, publisher interfaces.EventPublisher) *LifecycleController {
	return &LifecycleController{repo: repo, locker: locker, publisher: publisher, now: time.Now}
}

// CreateFromDecision persists a new claim whose status and risk follow the decision.
func (l *LifecycleController) CreateFromDecision(ctx context.Context, input models.ClaimInput, decision models.Decision) (models.Claim, error) {
	d := decision
	claim := models.Claim{
		OrderID:             input.OrderID,
		CustomerID:          input.CustomerID,
		IssueDescription:    input.IssueDescription,
		RequestedResolution: input.RequestedResolution,
		CreatedAt:           l.now().UTC(),
		AIDecision:          &d,
		Status:              models.InitialStatus(decision),
		RiskLevel:           models.RiskFor(decision),
	}

	stored, err := l.repo.Create(ctx, claim)
	if err != nil {
		return models.Claim{}, err
	}

	telemetry.ClaimTransitions.WithLabelValues("none", string(stored.Status)).Inc()
	telemetry.Logger.Info("Claim created",
		zap.String("claim_id", stored.ClaimID),
		zap.Int64("order_id", stored.OrderID),
		zap.String("status", string(stored.Status)),
		zap.String("risk_level", string(stored.RiskLevel)),
	)
	l.publish(ctx, stored, "")
	return stored, nil
}

// AdminOverride applies a manual decision. Approval turns the claim into an
// offer awaiting the customer; rejection is final.
func (l *LifecycleController) AdminOverride(ctx context.Context, claimID string, o AdminOverride) (models.Claim, error) {
	unlock, err := l.locker.Lock(ctx, claimID)
	if err != nil {
		return models.Claim{}, err
	}
	defer unlock()

	current, err := l.repo.Get(ctx, claimID)
	if err != nil {
		return models.Claim{}, err
	}
	next, err := models.AdminTransition(current.Status, o.Target)
	if err != nil {
		return models.Claim{}, err
	}

	update := models.ClaimUpdate{
		Status:         next,
		ResolutionType: o.ResolutionType,
		RefundAmount:   o.RefundAmount,
	}
	if next == models.StatusRejected {
		if update.ResolutionType == nil {
			none := models.ResolutionNone
			update.ResolutionType = &none
		}
		if update.RefundAmount == nil {
			update.RefundAmount = models.Float64(0)
		}
	}
	if note := strings.TrimSpace(o.Note); note != "" {
		author := o.Author
		if author == "" {
			author = defaultAdminAuthor
		}
		update.Note = &models.AdminNote{Author: author, Note: note, CreatedAt: l.now().UTC()}
	}

	return l.apply(ctx, current, update)
}

// RespondToOffer records the customer's answer to a pending offer. The
// offered resolution and refund are kept; a missing refund becomes 0.
func (l *LifecycleController) RespondToOffer(ctx context.Context, claimID string, accepted bool) (models.Claim, error) {
	unlock, err := l.locker.Lock(ctx, claimID)
	if err != nil {
		return models.Claim{}, err
	}
	defer unlock()

	current, err := l.repo.Get(ctx, claimID)
	if err != nil {
		return models.Claim{}, err
	}
	next, err := models.OfferTransition(current.Status, accepted)
	if err != nil {
		return models.Claim{}, err
	}

	note := offerRejectedNote
	if accepted {
		note = offerAcceptedNote
	}
	update := models.ClaimUpdate{
		Status: next,
		Note:   &models.AdminNote{Author: customerAuthor, Note: note, CreatedAt: l.now().UTC()},
	}
	// An offer made without an amount is settled at zero.
	if current.AIDecision == nil || current.AIDecision.RefundAmount == nil {
		update.RefundAmount = models.Float64(0)
	}
	return l.apply(ctx, current, update)
}

func (l *LifecycleController) apply(ctx context.Context, current models.Claim, update models.ClaimUpdate) (models.Claim, error) {
	updated, err := l.repo.Update(ctx, current.ClaimID, update)
	if err != nil {
		return models.Claim{}, err
	}

	telemetry.ClaimTransitions.WithLabelValues(string(current.Status), string(updated.Status)).Inc()
	telemetry.Logger.Info("Claim status transition",
		zap.String("claim_id", updated.ClaimID),
		zap.String("from_state", string(current.Status)),
		zap.String("to_state", string(updated.Status)),
	)
	l.publish(ctx, updated, current.Status)
	return updated, nil
}

func (l *LifecycleController) publish(ctx context.Context, claim models.Claim, previous models.ClaimStatus) {
	if l.publisher == nil {
		return
	}
	event := models.ClaimEvent{
		ClaimID:        claim.ClaimID,
		CustomerID:     claim.CustomerID,
		Status:         claim.Status,
		PreviousStatus: previous,
		OccurredAt:     l.now().UTC(),
	}
	if err := l.publisher.Publish(ctx, event); err != nil {
		telemetry.Logger.Warn("Failed to publish claim event",
			zap.String("claim_id", claim.ClaimID),
			zap.Error(err),
		)
	}
}
