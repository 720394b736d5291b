package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces cooldown keys.
const KeyPrefix = "cooldown:advice:"

// RedisStore shares cooldown windows between replicas.
//
// A window is a key written with SET NX PX: the write succeeds only when no
// window is open, and Redis expires it when the cooldown ends. The remaining
// wait comes from PTTL, so replicas agree even when their clocks drift.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func (r *RedisStore) Acquire(ctx context.Context, userID string, now time.Time, cooldown time.Duration) (bool, time.Duration, error) {
	key := KeyPrefix + userID

	// The key can expire between a failed SET NX and the PTTL; one retry covers it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.client.SetNX(ctx, key, now.UnixMilli(), cooldown).Result()
		if err != nil {
			return false, 0, fmt.Errorf("cooldown: redis SET NX %s: %w", key, err)
		}
		if ok {
			return true, 0, nil
		}

		ttl, err := r.client.PTTL(ctx, key).Result()
		if err != nil {
			return false, 0, fmt.Errorf("cooldown: redis PTTL %s: %w", key, err)
		}
		if ttl > 0 {
			return false, ttl, nil
		}
		// -2: gone already. -1: no expiry, which only happens if something
		// else wrote the key; treat it as a full window.
		if ttl == -1 {
			if err := r.client.PExpire(ctx, key, cooldown).Err(); err != nil {
				return false, 0, fmt.Errorf("cooldown: redis PEXPIRE %s: %w", key, err)
			}
			return false, cooldown, nil
		}
	}
	return false, cooldown, nil
}
