package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists a Cache wholesale: read once at the start of a run and
// rewritten once at the end.
type Store interface {
	Load(ctx context.Context) (*Cache, error)
	Save(ctx context.Context, c *Cache) error
	Close() error
}

// Stats describes a persisted cache.
type Stats struct {
	Entries int
	Size    int64
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for the named backend. Nothing is read until Load.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (valid: json, sqlite)", backend)
	}
}

// JSONStore keeps the cache as a single indented JSON object keyed by
// article identity.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string { return s.path }

// Load returns an empty cache when the file does not exist. A file that
// cannot be read or parsed also yields an empty cache, alongside the error.
func (s *JSONStore) Load(ctx context.Context) (*Cache, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return New(), fmt.Errorf("reading cache %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}

	var m map[string]Entry
	if err := json.Unmarshal(data, &m); err != nil {
		return New(), fmt.Errorf("parsing cache %s: %w", s.path, err)
	}
	return fromMap(m), nil
}

// Save rewrites the whole file through a temp file and rename.
func (s *JSONStore) Save(ctx context.Context, c *Cache) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.MarshalIndent(c.toMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".roasts-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache: %w", err)
	}
	// CreateTemp uses 0600; the site generator may run as another user.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting cache permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) Stats(ctx context.Context) (Stats, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	c, err := s.Load(ctx)
	if err != nil {
		return Stats{Size: info.Size()}, err
	}
	return Stats{Entries: c.Len(), Size: info.Size()}, nil
}
