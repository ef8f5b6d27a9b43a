package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"travelops/internal/store"
)

const (
	DefaultLimit  = 20
	shortNotesMax = 200
	anonymousKey  = "anonymous"
	anonymousName = "Anonymous"
	keyPrefix     = "history:"
)

type Entry struct {
	UserName   string    `json:"user_name"`
	City       string    `json:"city"`
	StartDate  string    `json:"start_date"`
	Days       int       `json:"days"`
	CreatedAt  time.Time `json:"created_at"`
	ShortNotes string    `json:"short_notes"`
}

type Store struct {
	kv    store.Store
	limit int
	now   func() time.Time
}

func NewStore(kv store.Store, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{kv: kv, limit: limit, now: time.Now}
}

// Key normalizes a user name into its history key.
func Key(userName string) string {
	name := strings.TrimSpace(userName)
	if name == "" {
		return anonymousKey
	}
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (s *Store) Load(ctx context.Context, userName string) ([]Entry, error) {
	items, err := s.kv.List(ctx, keyPrefix+Key(userName))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var entry Entry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Recent returns at most n of the newest entries, oldest first.
func (s *Store) Recent(ctx context.Context, userName string, n int) ([]Entry, error) {
	entries, err := s.Load(ctx, userName)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func (s *Store) Append(ctx context.Context, entry Entry) error {
	entry.UserName = strings.TrimSpace(entry.UserName)
	key := Key(entry.UserName)
	if entry.UserName == "" {
		entry.UserName = anonymousName
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	entry.ShortNotes = truncate(entry.ShortNotes, shortNotesMax)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	if err := s.kv.Append(ctx, keyPrefix+key, data, s.limit); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, userName string) (int, error) {
	entries, err := s.Load(ctx, userName)
	if err != nil {
		return 0, err
	}
	if err := s.kv.Delete(ctx, keyPrefix+Key(userName)); err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return len(entries), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
