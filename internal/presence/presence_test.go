package presence

import (
	"context"
	"testing"
	"time"

	"campus-dating-app/internal/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewFromOptions(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  newRedisStore(t),
	}
}

func TestOnlineWithinTimeout(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			tracker := NewTracker(store, time.Minute).WithClock(clock.Now)

			require.NoError(t, tracker.Heartbeat(ctx, 1))

			clock.Advance(59 * time.Second)
			online, err := tracker.IsOnline(ctx, 1)
			require.NoError(t, err)
			assert.True(t, online)

			clock.Advance(time.Second)
			online, err = tracker.IsOnline(ctx, 1)
			require.NoError(t, err)
			assert.False(t, online, "exactly the timeout is offline")
		})
	}
}

func TestUnknownProfileIsOffline(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			tracker := NewTracker(store, time.Minute)

			online, err := tracker.Online(context.Background(), []uint{7, 8})
			require.NoError(t, err)
			assert.Equal(t, map[uint]bool{7: false, 8: false}, online)
		})
	}
}

func TestOlderHeartbeatDoesNotWin(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			newer := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			require.NoError(t, store.Touch(ctx, 3, newer))
			require.NoError(t, store.Touch(ctx, 3, newer.Add(-time.Hour)))

			seen, err := store.LastSeen(ctx, []uint{3})
			require.NoError(t, err)
			assert.True(t, seen[3].Equal(newer))
		})
	}
}

func TestOnlineMixedBatch(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewTracker(NewMemoryStore(), time.Minute).WithClock(clock.Now)

	require.NoError(t, tracker.Heartbeat(ctx, 1))
	clock.Advance(2 * time.Minute)
	require.NoError(t, tracker.Heartbeat(ctx, 2))

	online, err := tracker.Online(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{1: false, 2: true, 3: false}, online)
}
