package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

const lockRetryInterval = 50 * time.Millisecond

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimLocker holds a per-claim SetNX lock so that concurrent admin
// and customer actions on one claim are applied one at a time. When redis
// cannot be reached it degrades to an in-process lock.
type RedisClaimLocker struct {
	client   *redis.Client
	ttl      time.Duration
	fallback *LocalClaimLocker
}

func NewRedisClaimLocker(client *redis.Client, ttl time.Duration) *RedisClaimLocker {
	return &RedisClaimLocker{client: client, ttl: ttl, fallback: NewLocalClaimLocker()}
}

func (l *RedisClaimLocker) Lock(ctx context.Context, claimID string) (func(), error) {
	lockKey := fmt.Sprintf("claim_lock:%s", claimID)
	token := ulid.Make().String()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("claim %s is already being processed: %w", claimID, ctxErr)
			}
			telemetry.StoreFallbacks.WithLabelValues("lock").Inc()
			telemetry.Logger.Warn("Redis claim lock unavailable, locking in process",
				zap.String("claim_id", claimID),
				zap.Error(err),
			)
			return l.fallback.Lock(ctx, claimID)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("claim %s is already being processed: %w", claimID, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		if err := releaseScript.Run(context.Background(), l.client, []string{lockKey}, token).Err(); err != nil {
			telemetry.Logger.Warn("Failed to release claim lock", zap.String("claim_id", claimID), zap.Error(err))
		}
	}, nil
}

// LocalClaimLocker serializes writers of a claim within this process. A
// claim's slot exists only while someone holds or waits for it.
type LocalClaimLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	held chan struct{}
	refs int
}

func NewLocalClaimLocker() *LocalClaimLocker {
	return &LocalClaimLocker{slots: make(map[string]*lockSlot)}
}

func (l *LocalClaimLocker) Lock(ctx context.Context, claimID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[claimID]
	if !ok {
		slot = &lockSlot{held: make(chan struct{}, 1)}
		l.slots[claimID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.held <- struct{}{}:
		return func() {
			<-slot.held
			l.release(claimID, slot)
		}, nil
	case <-ctx.Done():
		l.release(claimID, slot)
		return nil, fmt.Errorf("claim %s is already being processed: %w", claimID, ctx.Err())
	}
}

func (l *LocalClaimLocker) release(claimID string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, claimID)
	}
}
