package store

import (
	"context"
	"fmt"
	"time"
)

// Store is the persistence seam shared by the response cache and the trip
// history. Values are opaque JSON documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. Backends with native expiry honor ttl; a
	// zero ttl keeps the value until it is overwritten or deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Append adds value to the list under key and keeps only the most recent
	// limit entries. A limit of zero keeps everything.
	Append(ctx context.Context, key string, value []byte, limit int) error
	List(ctx context.Context, key string) ([][]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Options struct {
	Backend   string
	Path      string
	RedisAddr string
	RedisDB   int
	Prefix    string
}

func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Path)
	case BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:   opts.RedisAddr,
			DB:     opts.RedisDB,
			Prefix: opts.Prefix,
		})
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", opts.Backend)
	}
}

func trimList(items [][]byte, limit int) [][]byte {
	if limit > 0 && len(items) > limit {
		return items[len(items)-limit:]
	}
	return items
}
