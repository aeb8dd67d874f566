package interfaces

import (
	"context"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

// ClaimRepository is the claim store seen by the rest of the service.
// Transient backend failures are absorbed; only ErrClaimNotFound and
// context errors reach the caller.
type ClaimRepository interface {
	Create(ctx context.Context, claim models.Claim) (models.Claim, error)
	Get(ctx context.Context, claimID string) (models.Claim, error)
	ListAll(ctx context.Context) ([]models.Claim, error)
	ListForCustomer(ctx context.Context, customer models.Customer) ([]models.Claim, error)
	ListForOrder(ctx context.Context, orderID int64) ([]models.Claim, error)
	Update(ctx context.Context, claimID string, update models.ClaimUpdate) (models.Claim, error)
}

// ClaimBackend is one concrete claim store (remote database or local cache).
// Unlike ClaimRepository it reports every failure.
type ClaimBackend interface {
	Insert(ctx context.Context, claim models.Claim) (models.Claim, error)
	Get(ctx context.Context, claimID string) (models.Claim, error)
	ListAll(ctx context.Context) ([]models.Claim, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]models.Claim, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.Claim, error)
	Save(ctx context.Context, claim models.Claim) error
}
