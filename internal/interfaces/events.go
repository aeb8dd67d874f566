package interfaces

import (
	"context"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

type EventPublisher interface {
	Publish(ctx context.Context, event models.ClaimEvent) error
}

// ClaimWatcher streams claim events for one customer (ID 0 for all) until
// ctx is done. The returned channel is closed when the watch ends.
type ClaimWatcher interface {
	Watch(ctx context.Context, customer models.Customer) (<-chan models.ClaimEvent, error)
}

// ClaimLocker serializes writers of a single claim.
type ClaimLocker interface {
	Lock(ctx context.Context, claimID string) (unlock func(), err error)
}
