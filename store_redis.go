package rdapbootstrap

import (
	"context"
	"time"

	redis "github.com/go-redis/redis/v7"
)

type redisStore struct {
	client redis.UniversalClient
	prefix string
	// expire bounds how long an untouched record survives; zero keeps it.
	expire time.Duration

	touchScript *redis.Script
}

// NewRedisStore returns a Store shared by every instance using client.
// Keys are namespaced with prefix. Records not written or touched for
// expire are dropped by Redis; zero disables expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, expire time.Duration) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
		expire: expire,
		touchScript: redis.NewScript(`
local key = KEYS[1]
local ts = ARGV[1]
local expireMs = tonumber(ARGV[2])
if redis.call('EXISTS', key) == 0 then
  return 0
end
redis.call('SETRANGE', key, 0, ts)
if expireMs > 0 then
  redis.call('PEXPIRE', key, expireMs)
end
return 1
`),
	}
}

func (s *redisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + k
}

func (s *redisStore) Get(ctx context.Context, key string) (Record, bool, error) {
	_ = ctx // go-redis/v7 is context-less
	b, err := s.client.Get(s.key(key)).Bytes()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec, err := decodeRecord(b)
	if err != nil {
		// treat as miss; delete the bad value
		_ = s.client.Del(s.key(key)).Err()
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, rec Record) error {
	_ = ctx
	return s.client.Set(s.key(key), encodeRecord(rec), s.expire).Err()
}

func (s *redisStore) Touch(ctx context.Context, key string, at time.Time) error {
	_ = ctx
	return s.touchScript.Run(s.client, []string{s.key(key)},
		string(encodeTimestamp(at)), s.expire.Milliseconds()).Err()
}

func (s *redisStore) Close() error { return nil }
