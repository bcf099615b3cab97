package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
)

// checkAndIncr performs the check and the increment as one server-side
// operation. The key expires at the next UTC midnight, set on first use.
var checkAndIncr = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n >= tonumber(ARGV[1]) then
  return -1
end
n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('EXPIREAT', KEYS[1], ARGV[2])
end
return n
`)

// RedisTracker is the shared Tracker for multi-process deployments.
type RedisTracker struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisTracker connects to redisURL and verifies the connection.
func NewRedisTracker(redisURL string, logger *slog.Logger) (*RedisTracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisTracker{client: client, logger: logger, now: time.Now}, nil
}

func (t *RedisTracker) CheckAndIncrement(ctx context.Context, id entity.Identity, limit int) (Decision, error) {
	now := t.now().UTC()
	reset := NextUTCMidnight(now)
	key := "quota:" + id.String() + ":" + now.Format("2006-01-02")

	n, err := checkAndIncr.Run(ctx, t.client, []string{key}, limit, reset.Unix()).Int64()
	if err != nil {
		t.logger.Error("quota.redis.script_error", "key", key, "error", err)
		return Decision{}, fmt.Errorf("%w: quota check: %v", common.ErrStorage, err)
	}
	if n < 0 {
		return Decision{Allowed: false, Remaining: 0, ResetAt: reset}, nil
	}
	return Decision{Allowed: true, Remaining: limit - int(n), ResetAt: reset}, nil
}

// Ping verifies the Redis connection, for health reporting.
func (t *RedisTracker) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *RedisTracker) Close() error {
	return t.client.Close()
}
