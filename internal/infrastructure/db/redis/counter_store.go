package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

const keyPrefix = "ratelimit:"

// takeScript runs the fixed-window check-and-increment atomically.
// KEYS[1] counter key; ARGV[1] limit; ARGV[2] window in milliseconds.
// Returns {count, ttl_ms, allowed}.
var takeScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  redis.call('SET', KEYS[1], 1, 'PX', ARGV[2])
  return {1, tonumber(ARGV[2]), 1}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
current = tonumber(current)
if current < tonumber(ARGV[1]) then
  redis.call('INCR', KEYS[1])
  return {current + 1, ttl, 1}
end
return {current, ttl, 0}
`)

// CounterStore keeps fixed-window counters in Redis so every instance
// enforces the same limit. Key format: ratelimit:<action>:<identifier>
type CounterStore struct {
	client redis.Scripter
	now    func() time.Time
}

// NewCounterStore wraps client.
func NewCounterStore(client redis.Scripter) *CounterStore {
	return &CounterStore{client: client, now: time.Now}
}

// Take implements ports.CounterStore.
func (s *CounterStore) Take(ctx context.Context, key string, limit int, window time.Duration) (ports.Counter, bool, error) {
	res, err := takeScript.Run(ctx, s.client, []string{keyPrefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.Counter{}, false, fmt.Errorf("rate limit take: %w", err)
	}
	return parseTake(res, s.now())
}

func parseTake(res []int64, now time.Time) (ports.Counter, bool, error) {
	if len(res) != 3 {
		return ports.Counter{}, false, fmt.Errorf("rate limit take: unexpected reply length %d", len(res))
	}
	c := ports.Counter{
		Count:   int(res[0]),
		ResetAt: now.Add(time.Duration(res[1]) * time.Millisecond),
	}
	return c, res[2] == 1, nil
}
