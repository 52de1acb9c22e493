package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"goomer/internal/metrics"
)

// Redis is a JSON value cache. name labels its metrics.
type Redis struct {
	c    *redis.Client
	name string
}

func New(addr, pass string, db int) *Redis {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), "redis")
}

func NewWithClient(c *redis.Client, name string) *Redis {
	return &Redis{c: c, name: name}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.c.Close()
}

// Get decodes the value at key into dst. A miss is (false, nil).
func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveCache(r.name, "miss")
		return false, nil
	}
	if err != nil {
		metrics.ObserveCache(r.name, "error")
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		metrics.ObserveCache(r.name, "error")
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	metrics.ObserveCache(r.name, "hit")
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	metrics.ObserveCache(r.name, "set")
	return r.c.Set(ctx, key, b, ttl).Err()
}

// Incr bumps the counter at key and resets its expiry.
func (r *Redis) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		metrics.ObserveCache(r.name, "error")
		return 0, fmt.Errorf("cache incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Counter reads a counter written by Incr. A missing key reads as 0.
func (r *Redis) Counter(ctx context.Context, key string) (int64, error) {
	n, err := r.c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		metrics.ObserveCache(r.name, "error")
		return 0, fmt.Errorf("cache counter %s: %w", key, err)
	}
	return n, nil
}

func (r *Redis) Del(ctx context.Context, key string) error {
	metrics.ObserveCache(r.name, "del")
	return r.c.Del(ctx, key).Err()
}
