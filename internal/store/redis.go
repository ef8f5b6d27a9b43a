package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "travelops:"

type RedisOptions struct {
	Addr   string
	DB     int
	Prefix string
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}

	return NewRedisStoreFromClient(client, opts.Prefix), nil
}

func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Append(ctx context.Context, key string, value []byte, limit int) error {
	k := s.listKey(key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, value)
		if limit > 0 {
			pipe.LTrim(ctx, k, int64(-limit), -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, key string) ([][]byte, error) {
	values, err := s.client.LRange(ctx, s.listKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", key, err)
	}

	items := make([][]byte, len(values))
	for i, v := range values {
		items[i] = []byte(v)
	}
	return items, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key), s.listKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) listKey(key string) string {
	return s.prefix + "list:" + key
}
