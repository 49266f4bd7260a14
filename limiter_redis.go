package rdapbootstrap

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/go-redis/redis/v7"
)

// redisLimiter keeps token buckets in Redis so every instance shares them.
// Buckets expire after one idle window, when they would be full anyway.
type redisLimiter struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time

	allowScript *redis.Script
}

// NewRedisLimiter returns a Limiter backed by client.
func NewRedisLimiter(client redis.UniversalClient, prefix string) Limiter {
	return newRedisLimiter(client, prefix)
}

func newRedisLimiter(client redis.UniversalClient, prefix string) *redisLimiter {
	return &redisLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
		allowScript: redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local windowMs = tonumber(ARGV[3])

local tokens = tonumber(redis.call('HGET', key, 'tokens'))
if tokens == nil then tokens = limit end

local lastRefill = tonumber(redis.call('HGET', key, 'last_refill'))
if lastRefill == nil then lastRefill = now end

local delta = now - lastRefill
if delta < 0 then delta = 0 end

tokens = math.min(limit, tokens + (delta * limit / windowMs))

local allowed = 0
local retryMs = 0
if tokens >= 1.0 then
  tokens = tokens - 1.0
  allowed = 1
else
  retryMs = math.ceil((1.0 - tokens) * windowMs / limit)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last_refill', now)
redis.call('PEXPIRE', key, windowMs)
return {allowed, retryMs}
`),
	}
}

func (l *redisLimiter) key(bucket string) string {
	base := "rl:" + bucket
	if l.prefix == "" {
		return base
	}
	return l.prefix + base
}

func (l *redisLimiter) Allow(ctx context.Context, identity string, p Policy) (Decision, error) {
	_ = ctx // go-redis/v7 is context-less
	if !p.enabled() {
		return Decision{Allowed: true}, nil
	}
	res, err := l.allowScript.Run(l.client, []string{l.key(p.bucketKey(identity))},
		l.now().UnixMilli(), p.Limit, p.Window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, err
	}
	arr, ok := res.([]interface{})
	if !ok || len(arr) < 2 {
		return Decision{}, fmt.Errorf("unexpected limiter response: %T", res)
	}
	allowed, ok := toInt64(arr[0])
	if !ok {
		return Decision{}, fmt.Errorf("unexpected limiter allowed type: %T", arr[0])
	}
	if allowed == 1 {
		return Decision{Allowed: true}, nil
	}
	retryMs, ok := toInt64(arr[1])
	if !ok {
		return Decision{}, fmt.Errorf("unexpected limiter retry type: %T", arr[1])
	}
	return Decision{Allowed: false, RetryAfter: time.Duration(retryMs) * time.Millisecond}, nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
