package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
)

const defaultRedisPrefix = "syncpoint:checkpoint:"

// RedisStore keeps checkpoints as plain Redis string values. It is a
// convenient home for the peer-side copy of a checkpoint.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOpt configures a RedisStore.
type RedisOpt func(*RedisStore)

// WithKeyPrefix sets the prefix prepended to every checkpoint ID.
func WithKeyPrefix(prefix string) RedisOpt {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires stored checkpoints after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOpt {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisOpt) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string, opts ...RedisOpt) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: ping redis %s: %w", addr, err)
	}
	return NewRedisStore(client, opts...), nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	body, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis get %s: %w", id, err)
	}
	return body, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, body []byte) error {
	if err := s.client.Set(ctx, s.key(id), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("store: redis set %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("store: redis del %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
