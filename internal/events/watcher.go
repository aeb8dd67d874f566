package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

const watchBuffer = 64

// NatsWatcher streams the events published by NatsPublisher. Demo customers
// subscribe to every claim and are shown the events for claims their
// repository view includes, the same set PollingWatcher reports.
type NatsWatcher struct {
	nc   *nats.Conn
	repo interfaces.ClaimRepository
}

func NewNatsWatcher(nc *nats.Conn, repo interfaces.ClaimRepository) *NatsWatcher {
	return &NatsWatcher{nc: nc, repo: repo}
}

func (w *NatsWatcher) Watch(ctx context.Context, customer models.Customer) (<-chan models.ClaimEvent, error) {
	subject := statusSubjectPrefix + ">"
	if customer.ID != 0 && !customer.Demo {
		subject = StatusSubject(customer.ID)
	}

	msgs := make(chan *nats.Msg, watchBuffer)
	sub, err := w.nc.ChanSubscribe(subject, msgs)
	if err != nil {
		return nil, err
	}

	out := make(chan models.ClaimEvent)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				var event models.ClaimEvent
				if err := json.Unmarshal(msg.Data, &event); err != nil {
					telemetry.Logger.Warn("Dropping malformed claim event", zap.String("subject", msg.Subject), zap.Error(err))
					continue
				}
				if !visibleTo(ctx, w.repo, customer, event) {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// visibleTo reports whether event belongs in customer's stream. Customer ID 0
// watches everything.
func visibleTo(ctx context.Context, repo interfaces.ClaimRepository, customer models.Customer, event models.ClaimEvent) bool {
	if customer.ID == 0 || event.CustomerID == customer.ID {
		return true
	}
	if !customer.Demo {
		return false
	}
	claims, err := repo.ListForCustomer(ctx, customer)
	if err != nil {
		telemetry.Logger.Warn("Claim visibility check failed", zap.String("claim_id", event.ClaimID), zap.Error(err))
		return false
	}
	for _, c := range claims {
		if c.ClaimID == event.ClaimID {
			return true
		}
	}
	return false
}

// PollingWatcher detects status changes by re-reading the claim repository
// on a fixed interval. Used when no message bus is configured.
type PollingWatcher struct {
	repo     interfaces.ClaimRepository
	interval time.Duration
}

func NewPollingWatcher(repo interfaces.ClaimRepository, interval time.Duration) *PollingWatcher {
	return &PollingWatcher{repo: repo, interval: interval}
}

func (w *PollingWatcher) Watch(ctx context.Context, customer models.Customer) (<-chan models.ClaimEvent, error) {
	baseline, err := w.snapshot(ctx, customer)
	if err != nil {
		return nil, err
	}

	out := make(chan models.ClaimEvent)
	go func() {
		defer close(out)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		known := baseline
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			claims, err := w.list(ctx, customer)
			if err != nil {
				continue
			}
			for _, c := range claims {
				previous, seen := known[c.ClaimID]
				if seen && previous == c.Status {
					continue
				}
				known[c.ClaimID] = c.Status
				event := models.ClaimEvent{
					ClaimID:        c.ClaimID,
					CustomerID:     c.CustomerID,
					Status:         c.Status,
					PreviousStatus: previous,
					OccurredAt:     time.Now().UTC(),
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (w *PollingWatcher) snapshot(ctx context.Context, customer models.Customer) (map[string]models.ClaimStatus, error) {
	claims, err := w.list(ctx, customer)
	if err != nil {
		return nil, err
	}
	known := make(map[string]models.ClaimStatus, len(claims))
	for _, c := range claims {
		known[c.ClaimID] = c.Status
	}
	return known, nil
}

func (w *PollingWatcher) list(ctx context.Context, customer models.Customer) ([]models.Claim, error) {
	if customer.ID == 0 {
		return w.repo.ListAll(ctx)
	}
	return w.repo.ListForCustomer(ctx, customer)
}
