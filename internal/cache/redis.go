package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a closed Redis cache.
var ErrClosed = errors.New("cache closed")

// Redis is a Cache backed by a radix connection pool. Keys are prefixed so
// several deployments can share one Redis.
type Redis struct {
	client radix.Client
	prefix string
	closed atomic.Bool
}

// NewRedis dials a pool of size connections.
func NewRedis(addr string, size int, prefix string) (*Redis, error) {
	if size <= 0 {
		size = 10
	}
	pool, err := radix.NewPool("tcp", addr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	zap.L().Info("redis pool established", zap.String("addr", addr), zap.Int("size", size))
	return &Redis{client: pool, prefix: prefix}, nil
}

// NewRedisWithClient wraps an existing radix client.
func NewRedisWithClient(client radix.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

func (r *Redis) Get(_ context.Context, key string, dst any) (bool, error) {
	if r.closed.Load() {
		return false, ErrClosed
	}
	var data []byte
	mn := radix.MaybeNil{Rcv: &data}
	if err := r.client.Do(radix.Cmd(&mn, "GET", r.key(key))); err != nil {
		return false, err
	}
	if mn.Nil {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (r *Redis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if r.closed.Load() {
		return ErrClosed
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl > 0 {
		return r.client.Do(radix.FlatCmd(nil, "SET", r.key(key), data, "PX", ttl.Milliseconds()))
	}
	return r.client.Do(radix.FlatCmd(nil, "SET", r.key(key), data))
}

func (r *Redis) Delete(_ context.Context, keys ...string) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}
	args := make([]string, len(keys))
	for i, k := range keys {
		args[i] = r.key(k)
	}
	return r.client.Do(radix.Cmd(nil, "DEL", args...))
}

func (r *Redis) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.client.Close()
}
