package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"file":   fileStore,
		"memory": NewMemoryStore(),
		"redis":  NewRedisStoreFromClient(client, "test:"),
	}
}

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
			}

			if err := s.Set(ctx, "k", []byte(`{"a":1}`), 0); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			got, ok, err := s.Get(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("Get() ok %v, err %v", ok, err)
			}
			if string(got) != `{"a":1}` {
				t.Errorf("Get() = %s, want {\"a\":1}", got)
			}

			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "k"); ok {
				t.Error("Get() after Delete() still found key")
			}
		})
	}
}

func TestStoreAppendKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 21; i++ {
				if err := s.Append(ctx, "history", []byte(fmt.Sprintf("%d", i)), 20); err != nil {
					t.Fatalf("Append(%d) error: %v", i, err)
				}
			}

			items, err := s.List(ctx, "history")
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if len(items) != 20 {
				t.Fatalf("List() len = %d, want 20", len(items))
			}
			if string(items[0]) != "2" || string(items[19]) != "21" {
				t.Errorf("List() bounds = %s..%s, want 2..21", items[0], items[19])
			}

			if err := s.Delete(ctx, "history"); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			items, _ = s.List(ctx, "history")
			if len(items) != 0 {
				t.Errorf("List() after Delete() len = %d, want 0", len(items))
			}
		})
	}
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	first, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if err := first.Set(ctx, "k", []byte(`"v"`), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := first.Append(ctx, "l", []byte(`1`), 0); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	second, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() reload error: %v", err)
	}
	got, ok, _ := second.Get(ctx, "k")
	if !ok || string(got) != `"v"` {
		t.Errorf("reloaded Get() = %s, %v", got, ok)
	}
	items, _ := second.List(ctx, "l")
	if len(items) != 1 {
		t.Errorf("reloaded List() len = %d, want 1", len(items))
	}
}

func TestFileStoreSharedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	cli, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	server, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	if err := cli.Append(ctx, "trips", []byte(`"Paris"`), 0); err != nil {
		t.Fatalf("cli Append() error: %v", err)
	}
	if err := server.Append(ctx, "trips", []byte(`"Rome"`), 0); err != nil {
		t.Fatalf("server Append() error: %v", err)
	}
	if err := server.Set(ctx, "k", []byte(`1`), 0); err != nil {
		t.Fatalf("server Set() error: %v", err)
	}

	items, err := cli.List(ctx, "trips")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(items) != 2 || string(items[0]) != `"Paris"` || string(items[1]) != `"Rome"` {
		t.Errorf("List() = %q, want Paris then Rome", items)
	}
	if _, ok, _ := cli.Get(ctx, "k"); !ok {
		t.Error("Get() missed a key written by the other instance")
	}

	if err := cli.Delete(ctx, "trips"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	items, _ = server.List(ctx, "trips")
	if len(items) != 0 {
		t.Errorf("List() after delete = %q, want empty", items)
	}
	if _, ok, _ := server.Get(ctx, "k"); !ok {
		t.Error("Delete() of one key dropped another")
	}

	reloaded, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() reload error: %v", err)
	}
	if _, ok, _ := reloaded.Get(ctx, "k"); !ok {
		t.Error("reloaded store lost key")
	}
}

func TestFileStoreRejectsInvalidJSON(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if err := s.Set(context.Background(), "k", []byte("not json"), 0); err == nil {
		t.Error("Set() with invalid JSON should fail")
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaultFile", Options{Path: filepath.Join(t.TempDir(), "s.json")}, false},
		{"memory", Options{Backend: BackendMemory}, false},
		{"fileWithoutPath", Options{Backend: BackendFile}, true},
		{"redisWithoutAddr", Options{Backend: BackendRedis}, true},
		{"unknown", Options{Backend: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				_ = s.Close()
			}
		})
	}
}

func TestCacheMaxAge(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(NewMemoryStore())
	cache.now = func() time.Time { return now }

	if err := cache.Set(ctx, "places", []string{"Louvre Museum"}, time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	var got []string
	ok, err := cache.Get(ctx, "places", time.Hour, &got)
	if err != nil || !ok {
		t.Fatalf("Get() fresh = ok %v, err %v", ok, err)
	}
	if len(got) != 1 || got[0] != "Louvre Museum" {
		t.Errorf("Get() = %v", got)
	}

	now = now.Add(2 * time.Hour)
	ok, err = cache.Get(ctx, "places", time.Hour, &got)
	if err != nil || ok {
		t.Errorf("Get() stale = ok %v, err %v, want miss", ok, err)
	}
}
