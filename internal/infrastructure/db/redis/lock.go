package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/core/domain"
)

const (
	defaultLockTTL  = 5 * time.Second
	defaultLockWait = 250 * time.Millisecond
	lockPoll        = 25 * time.Millisecond
	releaseTimeout  = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard serialises mutations across instances with one Redis key per aggregate.
// Key format: lock:<kind>:<id>
type Guard struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	log    zerolog.Logger
}

// NewGuard creates a Guard. Locks expire after ttl so a crashed holder cannot
// block an aggregate forever.
func NewGuard(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Guard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Guard{client: client, ttl: ttl, wait: defaultLockWait, log: log}
}

// Lock acquires every key in sorted order. A key still held after a short wait
// fails with domain.ErrConflict; Redis errors map to domain.ErrStoreUnavailable.
func (g *Guard) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = lockKeys(keys)
	if len(keys) == 0 {
		return func() {}, nil
	}

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := g.acquire(ctx, key, token); err != nil {
			g.release(held, token)
			return nil, err
		}
		held = append(held, key)
	}
	return func() { g.release(held, token) }, nil
}

func (g *Guard) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(g.wait)
	for {
		ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
		if err != nil {
			return fmt.Errorf("%w: lock %s: %v", domain.ErrStoreUnavailable, key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s is being modified", domain.ErrConflict, key)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPoll):
		}
	}
}

func (g *Guard) release(keys []string, token string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	for _, key := range keys {
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			g.log.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}
}

// lockKeys prefixes, sorts and deduplicates keys so concurrent callers always
// acquire in the same order.
func lockKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		k = "lock:" + k
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
