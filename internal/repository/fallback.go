package repository

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

// FallbackRepository reads and writes the remote backend first and degrades
// to the local backend when it fails. Every write lands in the local backend,
// so when both hold a claim the copy with the later update time wins; a
// newer local copy is pushed back to the remote on read.
type FallbackRepository struct {
	remote interfaces.ClaimBackend
	local  interfaces.ClaimBackend
	now    func() time.Time
}

func NewFallbackRepository(remote, local interfaces.ClaimBackend) *FallbackRepository {
	return &FallbackRepository{remote: remote, local: local, now: time.Now}
}

func (r *FallbackRepository) Create(ctx context.Context, claim models.Claim) (models.Claim, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "claims.create")
	defer span.End()

	stored, err := r.remote.Insert(ctx, claim)
	if err == nil {
		if err := r.local.Save(ctx, stored); err != nil {
			telemetry.Logger.Warn("Failed to mirror claim locally",
				zap.String("claim_id", stored.ClaimID),
				zap.Error(err),
			)
		}
		return stored, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.Claim{}, ctxErr
	}

	telemetry.StoreFallbacks.WithLabelValues("create").Inc()
	span.SetAttributes(attribute.Bool("claims.fallback", true))
	telemetry.Logger.Warn("Remote claim insert failed, saving locally",
		zap.Int64("order_id", claim.OrderID),
		zap.Error(err),
	)

	claim.ClaimID = NewLocalClaimID()
	stored, err = r.local.Insert(ctx, claim)
	if err != nil {
		telemetry.Logger.Error("Local claim insert failed",
			zap.String("claim_id", claim.ClaimID),
			zap.Error(err),
		)
		return claim.Persistable(), nil
	}
	return stored, nil
}

func (r *FallbackRepository) Get(ctx context.Context, claimID string) (models.Claim, error) {
	remote, remoteErr := r.remote.Get(ctx, claimID)
	if remoteErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Claim{}, ctxErr
		}
		if !errors.Is(remoteErr, models.ErrClaimNotFound) {
			telemetry.StoreFallbacks.WithLabelValues("get").Inc()
			telemetry.Logger.Warn("Remote claim lookup failed, using local cache",
				zap.String("claim_id", claimID),
				zap.Error(remoteErr),
			)
		}
	}

	local, localErr := r.local.Get(ctx, claimID)
	if localErr != nil && !errors.Is(localErr, models.ErrClaimNotFound) {
		telemetry.Logger.Error("Local claim lookup failed", zap.String("claim_id", claimID), zap.Error(localErr))
	}

	switch {
	case remoteErr == nil && localErr == nil:
		if local.NewerThan(remote) {
			r.resync(ctx, local)
			return local, nil
		}
		return remote, nil
	case remoteErr == nil:
		return remote, nil
	case localErr == nil:
		return local, nil
	}
	return models.Claim{}, models.ErrClaimNotFound
}

// resync writes a local copy that is newer than the remote record back to
// the remote backend.
func (r *FallbackRepository) resync(ctx context.Context, claim models.Claim) {
	if err := r.remote.Save(ctx, claim); err != nil {
		telemetry.Logger.Warn("Remote claim copy is stale and could not be refreshed",
			zap.String("claim_id", claim.ClaimID),
			zap.Error(err),
		)
		return
	}
	telemetry.Logger.Info("Refreshed stale remote claim from local cache",
		zap.String("claim_id", claim.ClaimID),
		zap.String("status", string(claim.Status)),
	)
}

func (r *FallbackRepository) ListAll(ctx context.Context) ([]models.Claim, error) {
	local := func(ctx context.Context, _ bool) ([]models.Claim, error) { return r.local.ListAll(ctx) }
	return r.list(ctx, "list_all", r.remote.ListAll, local)
}

// ListForCustomer returns the customer's claims. A demo customer sees every
// local claim, but only when the remote store failed or had nothing for them.
func (r *FallbackRepository) ListForCustomer(ctx context.Context, customer models.Customer) ([]models.Claim, error) {
	remote := func(ctx context.Context) ([]models.Claim, error) {
		return r.remote.ListByCustomer(ctx, customer.ID)
	}
	local := func(ctx context.Context, degraded bool) ([]models.Claim, error) {
		if customer.Demo && degraded {
			return r.local.ListAll(ctx)
		}
		return r.local.ListByCustomer(ctx, customer.ID)
	}
	return r.list(ctx, "list_customer", remote, local)
}

func (r *FallbackRepository) ListForOrder(ctx context.Context, orderID int64) ([]models.Claim, error) {
	remote := func(ctx context.Context) ([]models.Claim, error) { return r.remote.ListByOrder(ctx, orderID) }
	local := func(ctx context.Context, _ bool) ([]models.Claim, error) { return r.local.ListByOrder(ctx, orderID) }
	return r.list(ctx, "list_order", remote, local)
}

// Update applies u to the current record and writes the result to both
// backends. The local write happens whatever the remote outcome, and the
// record is stamped so the local copy wins reads until the remote catches up.
func (r *FallbackRepository) Update(ctx context.Context, claimID string, u models.ClaimUpdate) (models.Claim, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "claims.update")
	defer span.End()

	current, err := r.Get(ctx, claimID)
	if err != nil {
		return models.Claim{}, err
	}
	updated := models.ApplyUpdate(current, u)
	updated.UpdatedAt = r.now().UTC().Truncate(time.Microsecond)

	if err := r.remote.Save(ctx, updated); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Claim{}, ctxErr
		}
		if !errors.Is(err, models.ErrClaimNotFound) {
			telemetry.StoreFallbacks.WithLabelValues("update").Inc()
			span.SetAttributes(attribute.Bool("claims.fallback", true))
			telemetry.Logger.Warn("Remote claim update failed, updating local cache only",
				zap.String("claim_id", claimID),
				zap.Error(err),
			)
		}
	}
	if err := r.local.Save(ctx, updated); err != nil {
		telemetry.Logger.Error("Local claim update failed", zap.String("claim_id", claimID), zap.Error(err))
	}
	return updated, nil
}

type (
	remoteListFunc func(ctx context.Context) ([]models.Claim, error)
	// localListFunc is told whether the remote query failed or came back empty.
	localListFunc func(ctx context.Context, degraded bool) ([]models.Claim, error)
)

func (r *FallbackRepository) list(ctx context.Context, op string, remote remoteListFunc, local localListFunc) ([]models.Claim, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "claims."+op)
	defer span.End()

	remoteClaims, remoteErr := remote(ctx)
	if remoteErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		telemetry.StoreFallbacks.WithLabelValues(op).Inc()
		span.SetAttributes(attribute.Bool("claims.fallback", true))
		telemetry.Logger.Warn("Remote claim query failed, using local cache",
			zap.String("operation", op),
			zap.Error(remoteErr),
		)
		remoteClaims = nil
	}

	localClaims, err := local(ctx, remoteErr != nil || len(remoteClaims) == 0)
	if err != nil {
		telemetry.Logger.Error("Local claim query failed", zap.String("operation", op), zap.Error(err))
		localClaims = nil
	}

	return mergeClaims(remoteClaims, localClaims), nil
}

// mergeClaims combines both result sets by claim id, keeping the most
// recently updated copy, newest claims first.
func mergeClaims(remote, local []models.Claim) []models.Claim {
	out := make([]models.Claim, 0, len(remote)+len(local))
	index := make(map[string]int, len(remote)+len(local))
	for _, c := range remote {
		if _, dup := index[c.ClaimID]; dup {
			continue
		}
		index[c.ClaimID] = len(out)
		out = append(out, c)
	}
	for _, c := range local {
		if i, dup := index[c.ClaimID]; dup {
			if c.NewerThan(out[i]) {
				out[i] = c
			}
			continue
		}
		index[c.ClaimID] = len(out)
		out = append(out, c)
	}
	sortNewestFirst(out)
	return out
}
