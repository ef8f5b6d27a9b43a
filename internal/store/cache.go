package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type cacheEntry struct {
	TS    int64           `json:"ts"`
	Value json.RawMessage `json:"value"`
}

// Cache stores timestamped JSON values and treats entries older than the
// caller's max age as missing.
type Cache struct {
	store Store
	now   func() time.Time
}

func NewCache(s Store) *Cache {
	return &Cache{store: s, now: time.Now}
}

func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration, dest any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false, nil
	}
	if maxAge > 0 && c.now().Sub(time.Unix(entry.TS, 0)) > maxAge {
		return false, nil
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	raw, err := json.Marshal(cacheEntry{TS: c.now().Unix(), Value: data})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.store.Set(ctx, key, raw, ttl)
}
