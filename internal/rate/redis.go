package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and arms its expiry on the first hit of a window.
var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// Redis is the fixed window limiter shared by every process using the same Redis.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedis creates a shared limiter; prefix namespaces its keys.
func NewRedis(client *redis.Client, max int, window time.Duration, prefix string) *Redis {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{client: client, max: max, window: window, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	count, err := fixedWindowScript.Run(ctx, r.client, []string{r.prefix + key}, r.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("run rate limit script: %w", err)
	}
	return count <= int64(r.max), nil
}

var _ Limiter = (*Redis)(nil)
