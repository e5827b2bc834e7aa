package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// admitScript increments the key, starts the window on the first hit and
// reports the remaining window in ms. Redis runs it atomically.
var admitScript = goredis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisLimiter shares windows across replicas through Redis.
type RedisLimiter struct {
	rdb    goredis.Scripter
	size   time.Duration
	prefix string
}

func NewRedisLimiter(rdb goredis.Scripter, size time.Duration, keyPrefix string) *RedisLimiter {
	if size <= 0 {
		size = DefaultWindow
	}
	if keyPrefix == "" {
		keyPrefix = "ragvault:ratelimit:"
	}
	return &RedisLimiter{rdb: rdb, size: size, prefix: keyPrefix}
}

func (r *RedisLimiter) Admit(ctx context.Context, keyID string, limit int) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	res, err := admitScript.Run(ctx, r.rdb, []string{r.prefix + keyID}, r.size.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit store: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit store: unexpected reply %v", res)
	}
	count := int(res[0])
	d := Decision{Allowed: count <= limit, Count: count, Limit: limit}
	if !d.Allowed {
		d.RetryAfter = time.Duration(res[1]) * time.Millisecond
	}
	return d, nil
}
