package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/repository"
)

type lifecycleFixture struct {
	repo      *repository.FallbackRepository
	publisher *recordingPublisher
	lc        *LifecycleController
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{repo: newOfflineRepository(), publisher: &recordingPublisher{}}
	f.lc = NewLifecycleController(f.repo, repository.NewLocalClaimLocker(), f.publisher)
	f.lc.now = func() time.Time { return fixedNow }
	return f
}

func (f *lifecycleFixture) seed(t *testing.T, status models.ClaimStatus) models.Claim {
	t.Helper()
	claim, err := f.repo.Create(context.Background(), models.Claim{
		OrderID:    1001,
		CustomerID: 501,
		CreatedAt:  fixedNow,
		Status:     status,
		RiskLevel:  models.RiskHigh,
		AIDecision: &models.Decision{
			Status:             models.DecisionEscalate,
			ResolutionType:     models.ResolutionNone,
			Reason:             "Needs review",
			EscalationRequired: true,
			NextSteps:          models.NextStepsManualReview,
		},
	})
	if err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	return claim
}

func TestCreateFromDecision(t *testing.T) {
	f := newLifecycleFixture()
	input := models.ClaimInput{OrderID: 1001, CustomerID: 501, IssueDescription: "item arrived broken", RequestedResolution: models.ResolutionFullRefund}
	decision := models.Decision{Status: models.DecisionEscalate, ConfidenceScore: 0.4, EscalationRequired: true}

	claim, err := f.lc.CreateFromDecision(context.Background(), input, decision)
	if err != nil {
		t.Fatalf("CreateFromDecision: %v", err)
	}
	if claim.Status != models.StatusEscalate || claim.RiskLevel != models.RiskHigh {
		t.Errorf("status/risk = %s/%s, want escalate/high", claim.Status, claim.RiskLevel)
	}
	if !strings.HasPrefix(claim.ClaimID, repository.LocalClaimIDPrefix) {
		t.Errorf("ClaimID = %q, want a local id while remote is down", claim.ClaimID)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].PreviousStatus != "" {
		t.Errorf("events = %+v", f.publisher.events)
	}
}

func TestAdminApproveCreatesOffer(t *testing.T) {
	f := newLifecycleFixture()
	seeded := f.seed(t, models.StatusPending)

	claim, err := f.lc.AdminOverride(context.Background(), seeded.ClaimID, AdminOverride{
		Target:       models.StatusApproved,
		RefundAmount: models.Float64(20),
		Note:         "Goodwill partial refund",
	})
	if err != nil {
		t.Fatalf("AdminOverride: %v", err)
	}

	if claim.Status != models.StatusWaitingUserAction {
		t.Errorf("Status = %s, want waiting_user_action", claim.Status)
	}
	if claim.AIDecision.RefundAmount == nil || *claim.AIDecision.RefundAmount != 20 {
		t.Errorf("RefundAmount = %v, want 20", claim.AIDecision.RefundAmount)
	}
	if !strings.Contains(claim.AIDecision.NextSteps, "Action Required") {
		t.Errorf("NextSteps = %q", claim.AIDecision.NextSteps)
	}
	if len(claim.AdminNotes) != 1 || claim.AdminNotes[0].Author != "admin" {
		t.Errorf("AdminNotes = %+v", claim.AdminNotes)
	}
	if claim.AIDecision.Reason != "Needs review" {
		t.Errorf("stored reason changed to %q", claim.AIDecision.Reason)
	}

	stored, err := f.repo.Get(context.Background(), seeded.ClaimID)
	if err != nil || stored.Status != models.StatusWaitingUserAction {
		t.Errorf("stored = (%s, %v)", stored.Status, err)
	}
}

func TestCustomerRejectsOffer(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	seeded := f.seed(t, models.StatusEscalate)
	if _, err := f.lc.AdminOverride(ctx, seeded.ClaimID, AdminOverride{Target: models.StatusApproved, RefundAmount: models.Float64(20)}); err != nil {
		t.Fatal(err)
	}

	claim, err := f.lc.RespondToOffer(ctx, seeded.ClaimID, false)
	if err != nil {
		t.Fatalf("RespondToOffer: %v", err)
	}
	if claim.Status != models.StatusOfferRejected || !models.IsTerminal(claim.Status) {
		t.Errorf("Status = %s, want terminal offer_rejected", claim.Status)
	}
	if *claim.AIDecision.RefundAmount != 20 {
		t.Errorf("offer amount should be kept, got %v", *claim.AIDecision.RefundAmount)
	}
	last := claim.AdminNotes[len(claim.AdminNotes)-1]
	if last.Author != "customer" || last.Note != "User REJECTED the offer." {
		t.Errorf("last note = %+v", last)
	}

	for _, target := range []models.ClaimStatus{models.StatusApproved, models.StatusRejected} {
		if _, err := f.lc.AdminOverride(ctx, seeded.ClaimID, AdminOverride{Target: target}); !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("admin %s after offer_rejected: expected ErrInvalidTransition, got %v", target, err)
		}
	}
	if _, err := f.lc.RespondToOffer(ctx, seeded.ClaimID, true); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("second response: expected ErrInvalidTransition, got %v", err)
	}

	stored, _ := f.repo.Get(ctx, seeded.ClaimID)
	if stored.Status != models.StatusOfferRejected {
		t.Errorf("stored status changed to %s", stored.Status)
	}
}

func TestCustomerAcceptsOffer(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	seeded := f.seed(t, models.StatusPending)
	if _, err := f.lc.AdminOverride(ctx, seeded.ClaimID, AdminOverride{Target: models.StatusApproved}); err != nil {
		t.Fatal(err)
	}

	claim, err := f.lc.RespondToOffer(ctx, seeded.ClaimID, true)
	if err != nil {
		t.Fatalf("RespondToOffer: %v", err)
	}
	if claim.Status != models.StatusOfferAccepted || claim.AIDecision.Status != models.DecisionApproved {
		t.Errorf("status = %s / %s", claim.Status, claim.AIDecision.Status)
	}
	if claim.AIDecision.RefundAmount == nil || *claim.AIDecision.RefundAmount != 0 {
		t.Errorf("offer without an amount should settle at 0, got %v", claim.AIDecision.RefundAmount)
	}

	statuses := make([]models.ClaimStatus, 0, len(f.publisher.events))
	for _, e := range f.publisher.events {
		statuses = append(statuses, e.Status)
	}
	if len(statuses) != 2 || statuses[0] != models.StatusWaitingUserAction || statuses[1] != models.StatusOfferAccepted {
		t.Errorf("published statuses = %v", statuses)
	}
}

func TestAdminRejectDefaults(t *testing.T) {
	f := newLifecycleFixture()
	seeded := f.seed(t, models.StatusEscalate)

	claim, err := f.lc.AdminOverride(context.Background(), seeded.ClaimID, AdminOverride{Target: models.StatusRejected, Note: "  ", Author: "ops"})
	if err != nil {
		t.Fatalf("AdminOverride: %v", err)
	}
	d := claim.AIDecision
	if claim.Status != models.StatusRejected || d.ResolutionType != models.ResolutionNone || d.RefundAmount == nil || *d.RefundAmount != 0 {
		t.Errorf("unexpected rejection: status=%s decision=%+v", claim.Status, d)
	}
	if d.NextSteps != models.NextStepsResolvedManually {
		t.Errorf("NextSteps = %q", d.NextSteps)
	}
	if len(claim.AdminNotes) != 0 {
		t.Errorf("blank note should not be recorded: %+v", claim.AdminNotes)
	}
}

func TestRespondWithoutOffer(t *testing.T) {
	f := newLifecycleFixture()
	seeded := f.seed(t, models.StatusEscalate)
	if _, err := f.lc.RespondToOffer(context.Background(), seeded.ClaimID, true); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestOverrideUnknownClaim(t *testing.T) {
	f := newLifecycleFixture()
	if _, err := f.lc.AdminOverride(context.Background(), "CLM-404", AdminOverride{Target: models.StatusApproved}); !errors.Is(err, models.ErrClaimNotFound) {
		t.Errorf("expected ErrClaimNotFound, got %v", err)
	}
}
