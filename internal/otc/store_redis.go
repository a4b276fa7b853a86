package otc

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"graminsetu/pkg/platform/sentinel"
	"graminsetu/pkg/requestcontext"
)

// The value stores the code together with its deadline (unix millis) so an
// expired entry is distinguishable from a missing one, matching the memory
// store's lazy-expiry semantics. The Redis key TTL is set to twice the code
// TTL purely as garbage collection; after that window an expired entry
// reports not-found, which is also what the memory semantics converge to
// once the lazy delete has run.
var compareAndDeleteScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 'missing'
end
local sep = string.find(v, '|')
local code = string.sub(v, 1, sep - 1)
local exp = tonumber(string.sub(v, sep + 1))
if tonumber(ARGV[2]) > exp then
  redis.call('DEL', KEYS[1])
  return 'expired'
end
if code ~= ARGV[1] then
  return 'mismatch'
end
redis.call('DEL', KEYS[1])
return 'ok'
`)

// RedisStore backs the registry with Redis so multiple instances share
// code state. Verification runs as a single Lua script, which gives the
// atomic compare-and-delete the contract requires.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Redis-backed code store. The prefix keeps the
// independently keyed registries (email vs phone) in disjoint keyspaces.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Put(ctx context.Context, key, code string, expiresAt time.Time) error {
	value := code + "|" + strconv.FormatInt(expiresAt.UnixMilli(), 10)
	ttl := 2 * expiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	return nil
}

func (s *RedisStore) CompareAndDelete(ctx context.Context, key, code string) error {
	now := requestcontext.Now(ctx).UnixMilli()
	result, err := compareAndDeleteScript.Run(ctx, s.client, []string{s.key(key)}, code, now).Result()
	if err != nil {
		return fmt.Errorf("verify code: %w", err)
	}
	switch result {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("code entry not found: %w", sentinel.ErrNotFound)
	case "expired":
		return fmt.Errorf("code entry expired: %w", sentinel.ErrExpired)
	case "mismatch":
		return fmt.Errorf("code does not match: %w", sentinel.ErrMismatch)
	default:
		return fmt.Errorf("unexpected verify result %v: %w", result, sentinel.ErrInvalidState)
	}
}
