package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"campus-dating-app/internal/redis"

	goredis "github.com/redis/go-redis/v9"
)

const lastSeenKey = "presence:last_seen"

// touchScript keeps the larger of the stored and incoming timestamps.
var touchScript = goredis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if (not current) or tonumber(current) < tonumber(ARGV[2]) then
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
end
return 1
`)

// RedisStore keeps heartbeats in a single hash: field = profile id,
// value = unix milliseconds.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Touch(ctx context.Context, profileID uint, at time.Time) error {
	field := strconv.FormatUint(uint64(profileID), 10)
	if err := s.client.RunScript(ctx, touchScript, []string{lastSeenKey}, field, at.UnixMilli()); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return nil
}

func (s *RedisStore) LastSeen(ctx context.Context, profileIDs []uint) (map[uint]time.Time, error) {
	out := make(map[uint]time.Time, len(profileIDs))
	if len(profileIDs) == 0 {
		return out, nil
	}

	fields := make([]string, len(profileIDs))
	for i, id := range profileIDs {
		fields[i] = strconv.FormatUint(uint64(id), 10)
	}

	values, err := s.client.HMGet(ctx, lastSeenKey, fields...)
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[profileIDs[i]] = time.UnixMilli(millis)
	}
	return out, nil
}
