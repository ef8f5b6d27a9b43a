package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileData struct {
	Values map[string]json.RawMessage   `json:"values"`
	Lists  map[string][]json.RawMessage `json:"lists"`
}

// FileStore keeps every key in a single JSON document. Every access reloads
// the file, so a CLI run and a running server see each other's writes.
// Simultaneous writers in different processes are not coordinated.
type FileStore struct {
	mu       sync.Mutex
	data     fileData
	dataFile string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path is empty")
	}
	s := &FileStore{
		dataFile: path,
		data:     newFileData(),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func newFileData() fileData {
	return fileData{
		Values: make(map[string]json.RawMessage),
		Lists:  make(map[string][]json.RawMessage),
	}
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, false, err
	}
	value, ok := s.data.Values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !json.Valid(value) {
		return fmt.Errorf("set %s: value is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.data.Values[key] = append(json.RawMessage(nil), value...)
	return s.save()
}

func (s *FileStore) Append(ctx context.Context, key string, value []byte, limit int) error {
	if !json.Valid(value) {
		return fmt.Errorf("append %s: value is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	items := append(s.data.Lists[key], append(json.RawMessage(nil), value...))
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	s.data.Lists[key] = items
	return s.save()
}

func (s *FileStore) List(ctx context.Context, key string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	items := s.data.Lists[key]
	result := make([][]byte, len(items))
	for i, item := range items {
		result[i] = append([]byte(nil), item...)
	}
	return result, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	delete(s.data.Values, key)
	delete(s.data.Lists, key)
	return s.save()
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.dataFile)
	if os.IsNotExist(err) {
		s.data = newFileData()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}
	if len(data) == 0 {
		s.data = newFileData()
		return nil
	}

	loaded := newFileData()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse store file: %w", err)
	}
	if loaded.Values == nil {
		loaded.Values = make(map[string]json.RawMessage)
	}
	if loaded.Lists == nil {
		loaded.Lists = make(map[string][]json.RawMessage)
	}
	s.data = loaded
	return nil
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.dataFile), 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.dataFile), filepath.Base(s.dataFile)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.dataFile); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
