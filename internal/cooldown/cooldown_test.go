package cooldown

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// ===== MEMORY STORE =====

func TestGate_MemoryWindow(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), time.Minute, testLogger())

	first := gate.Check(ctx, "u1", t0)
	assert.True(t, first.Allowed)
	assert.Equal(t, 0, first.RetryAfterSeconds())

	blocked := gate.Check(ctx, "u1", t0.Add(20*time.Second))
	assert.False(t, blocked.Allowed)
	assert.Equal(t, 40*time.Second, blocked.RetryAfter)
	assert.Equal(t, 40, blocked.RetryAfterSeconds())

	// other users are independent
	assert.True(t, gate.Check(ctx, "u2", t0.Add(20*time.Second)).Allowed)

	// exactly one cooldown later the window is closed
	assert.True(t, gate.Check(ctx, "u1", t0.Add(time.Minute)).Allowed)
}

func TestGate_BlockedCallDoesNotExtendWindow(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), time.Minute, testLogger())

	require.True(t, gate.Check(ctx, "u1", t0).Allowed)
	require.False(t, gate.Check(ctx, "u1", t0.Add(59*time.Second)).Allowed)

	assert.True(t, gate.Check(ctx, "u1", t0.Add(61*time.Second)).Allowed)
}

func TestDecision_RetryAfterSecondsRoundsUp(t *testing.T) {
	d := Decision{RetryAfter: 1500 * time.Millisecond}
	assert.Equal(t, 2, d.RetryAfterSeconds())
}

func TestNewGate_DefaultCooldown(t *testing.T) {
	gate := NewGate(NewMemoryStore(), 0, testLogger())
	assert.Equal(t, DefaultCooldown, gate.Cooldown())
}

func TestMemoryStore_EvictsStaleEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		ok, _, err := store.Acquire(ctx, id, t0, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 3, store.Len())

	_, _, err := store.Acquire(ctx, "d", t0.Add(10*time.Minute), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ConcurrentCallsAdmitOne(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewMemoryStore(), time.Minute, testLogger())

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.Check(ctx, "u1", t0).Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), allowed.Load())
}

// ===== FAILING STORE =====

type brokenStore struct{}

func (brokenStore) Acquire(context.Context, string, time.Time, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("connection refused")
}

func TestGate_StoreErrorAllows(t *testing.T) {
	gate := NewGate(brokenStore{}, time.Minute, testLogger())
	assert.True(t, gate.Check(context.Background(), "u1", t0).Allowed)
}

func TestGate_StoreErrorLogsUserID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	gate := NewGate(brokenStore{}, time.Minute, logger)

	gate.Check(context.Background(), "u1", t0)

	assert.Contains(t, buf.String(), "userID=u1")
	assert.Contains(t, buf.String(), "connection refused")
}

// ===== REDIS STORE =====

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisStore(client)
}

func TestRedisStore_Window(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestRedis(t)

	ok, _, err := store.Acquire(ctx, "u1", t0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(KeyPrefix+"u1"))

	ok, wait, err := store.Acquire(ctx, "u1", t0, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Minute)

	mr.FastForward(time.Minute)

	ok, _, err = store.Acquire(ctx, "u1", t0.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_KeyWithoutExpiryIsRepaired(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestRedis(t)

	require.NoError(t, mr.Set(KeyPrefix+"u1", "stale"))

	ok, wait, err := store.Acquire(ctx, "u1", t0, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)
	assert.Greater(t, mr.TTL(KeyPrefix+"u1"), time.Duration(0))
}

func TestRedisStore_ErrorWhenServerGone(t *testing.T) {
	mr, store := newTestRedis(t)
	mr.Close()

	_, _, err := store.Acquire(context.Background(), "u1", t0, time.Minute)
	assert.Error(t, err)
}
