package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

const defaultLoginRate = 10

// LoginLimiter throttles login attempts per username with a GCRA limit.
// Key format: rate:login:<username>
type LoginLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewLoginLimiter allows perMinute attempts per username per minute.
func NewLoginLimiter(client *redis.Client, perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = defaultLoginRate
	}
	return &LoginLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit:   redis_rate.PerMinute(perMinute),
	}
}

func (l *LoginLimiter) Allow(ctx context.Context, username string) (bool, error) {
	res, err := l.limiter.Allow(ctx, "login:"+username, l.limit)
	if err != nil {
		return false, fmt.Errorf("login limiter: %w", err)
	}
	return res.Allowed > 0, nil
}
