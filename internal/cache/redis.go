package cache

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	C *redis.Client
}

func New(addr string) *Redis {
	return &Redis{
		C: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.C.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.C.Close()
}

func (r *Redis) GetString(ctx context.Context, key string) (string, error) {
	return r.C.Get(ctx, key).Result()
}

func (r *Redis) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.C.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.C.Del(ctx, keys...).Err()
}

// IsMiss reports a plain cache miss as opposed to Redis being unreachable.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Fetch reads key as JSON, falling back to load on a miss or any Redis
// error and backfilling the value. A nil cache always loads.
func Fetch[T any](ctx context.Context, r *Redis, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if r == nil {
		return load(ctx)
	}

	// 1) Redis
	if s, err := r.GetString(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v, nil
		}
	}

	// 2) source of truth
	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	// 3) backfill
	if b, err := json.Marshal(v); err == nil {
		_ = r.SetString(ctx, key, string(b), ttl)
	}
	return v, nil
}

// Invalidate drops keys; a nil cache is a no-op.
func Invalidate(ctx context.Context, r *Redis, keys ...string) {
	if r == nil {
		return
	}
	_ = r.Del(ctx, keys...)
}
