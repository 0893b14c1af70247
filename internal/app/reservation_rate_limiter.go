/**
 * @description
 * Redis-backed fixed-window rate limiter for reservation creation, so a
 * single member cannot spam holds and pin a tenant's catalog. The
 * limiter degrades to allow-all when Redis is not configured.
 */

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var reservationRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisReservationLimiter counts reservation attempts per member inside a
// fixed window using a single atomic Lua script.
type RedisReservationLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisReservationLimiter creates a limiter. A nil client yields a
// limiter that allows everything.
func NewRedisReservationLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisReservationLimiter {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "church:reservation_limit"
	}
	return &RedisReservationLimiter{client: client, prefix: trimmed, limit: limit, window: window}
}

// Allow reports whether the subject may place another reservation in the
// current window.
func (l *RedisReservationLimiter) Allow(ctx context.Context, subject string) (bool, error) {
	if l == nil || l.client == nil || l.limit <= 0 || l.window <= 0 {
		return true, nil
	}

	windowStart := time.Now().UnixMilli() / l.window.Milliseconds()
	key := fmt.Sprintf("%s:%s:%d", l.prefix, subject, windowStart)

	count, err := reservationRateLimitScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return count <= l.limit, nil
}
