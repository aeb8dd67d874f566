package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

// LocalClaimIDPrefix marks ids minted while the remote store was unavailable.
const LocalClaimIDPrefix = "LOC-"

// NewLocalClaimID returns a time-ordered id for a claim created offline.
func NewLocalClaimID() string {
	return LocalClaimIDPrefix + ulid.Make().String()
}

// LocalClaimBackend stores every claim in one JSON array document. Each
// operation rewrites the whole document, so operations are serialized.
type LocalClaimBackend struct {
	mu  sync.Mutex
	doc interfaces.DocumentStore
}

func NewLocalClaimBackend(doc interfaces.DocumentStore) *LocalClaimBackend {
	return &LocalClaimBackend{doc: doc}
}

func (b *LocalClaimBackend) Insert(ctx context.Context, claim models.Claim) (models.Claim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	claims, err := b.load(ctx)
	if err != nil {
		return models.Claim{}, err
	}
	if claim.ClaimID == "" {
		claim.ClaimID = NewLocalClaimID()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	if claim.UpdatedAt.IsZero() {
		claim.UpdatedAt = claim.CreatedAt
	}
	claim = claim.Persistable()
	if err := b.store(ctx, append([]models.Claim{claim}, claims...)); err != nil {
		return models.Claim{}, err
	}
	return claim, nil
}

func (b *LocalClaimBackend) Get(ctx context.Context, claimID string) (models.Claim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	claims, err := b.load(ctx)
	if err != nil {
		return models.Claim{}, err
	}
	for _, c := range claims {
		if c.ClaimID == claimID {
			return c, nil
		}
	}
	return models.Claim{}, models.ErrClaimNotFound
}

func (b *LocalClaimBackend) ListAll(ctx context.Context) ([]models.Claim, error) {
	return b.list(ctx, func(models.Claim) bool { return true })
}

func (b *LocalClaimBackend) ListByCustomer(ctx context.Context, customerID int64) ([]models.Claim, error) {
	return b.list(ctx, func(c models.Claim) bool { return c.CustomerID == customerID })
}

func (b *LocalClaimBackend) ListByOrder(ctx context.Context, orderID int64) ([]models.Claim, error) {
	return b.list(ctx, func(c models.Claim) bool { return c.OrderID == orderID })
}

// Save replaces the record with the same claim id, inserting it when absent.
func (b *LocalClaimBackend) Save(ctx context.Context, claim models.Claim) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	claims, err := b.load(ctx)
	if err != nil {
		return err
	}
	claim = claim.Persistable()
	for i := range claims {
		if claims[i].ClaimID == claim.ClaimID {
			claims[i] = claim
			return b.store(ctx, claims)
		}
	}
	return b.store(ctx, append([]models.Claim{claim}, claims...))
}

func (b *LocalClaimBackend) list(ctx context.Context, keep func(models.Claim) bool) ([]models.Claim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	claims, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Claim{}
	for _, c := range claims {
		if keep(c) {
			out = append(out, c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// load reads the document. A corrupt document is logged and treated as
// empty; the next write replaces it.
func (b *LocalClaimBackend) load(ctx context.Context) ([]models.Claim, error) {
	raw, err := b.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []models.Claim{}, nil
	}
	var claims []models.Claim
	if err := json.Unmarshal(raw, &claims); err != nil {
		telemetry.Logger.Warn("Local claim document unreadable, starting empty", zap.Error(err))
		return []models.Claim{}, nil
	}
	return claims, nil
}

func (b *LocalClaimBackend) store(ctx context.Context, claims []models.Claim) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return err
	}
	return b.doc.Save(ctx, raw)
}

func sortNewestFirst(claims []models.Claim) {
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
}
