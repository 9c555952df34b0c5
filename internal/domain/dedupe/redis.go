package dedupe

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// RedisDeduper shares seen ids across processes with SETNX and a TTL.
type RedisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	// recorded counts ids this process recorded; Redis holds the shared set.
	recorded atomic.Int64
}

// NewRedisDeduper connects to url and verifies the connection.
func NewRedisDeduper(ctx context.Context, url string, opts ...RedisOption) (*RedisDeduper, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse redis url: %v", ErrBackend, err)
	}
	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: connect to redis: %v", ErrBackend, err)
	}
	return NewRedisDeduperWithClient(client, opts...), nil
}

// NewRedisDeduperWithClient wraps an existing client.
func NewRedisDeduperWithClient(client *redis.Client, opts ...RedisOption) *RedisDeduper {
	d := &RedisDeduper{
		client: client,
		prefix: "shelf:activity:",
		ttl:    defaultRedisTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *RedisDeduper) key(id string) string {
	return d.prefix + id
}

func (d *RedisDeduper) SeenAndRecord(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(id), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx: %v", ErrBackend, err)
	}
	if !ok {
		return true, nil
	}
	d.recorded.Add(1)
	return false, nil
}

func (d *RedisDeduper) Unrecord(ctx context.Context, id string) error {
	n, err := d.client.Del(ctx, d.key(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: del: %v", ErrBackend, err)
	}
	d.recorded.Add(-n)
	return nil
}

func (d *RedisDeduper) Size() int64 {
	return d.recorded.Load()
}

// Close releases the Redis client.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
