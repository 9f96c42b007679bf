package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/trackstate/pkg/store"
)

// Store implements store.Store on the local filesystem. Each key lives in
// its own JSON file named after the xxhash of the key, so arbitrary key
// strings never reach the path.
type Store struct {
	BasePath string
}

// envelope is the on-disk layout. The key is kept so Keys can report it and
// hash collisions are detected on Load.
type envelope struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".trackstate".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = ".trackstate"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.BasePath, strconv.FormatUint(xxhash.Sum64String(key), 16)+".json")
}

// Save writes the value atomically: temp file, fsync, then rename over the
// destination.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure store directory: %w", err)
	}

	data, err := json.Marshal(envelope{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	env, err := s.read(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if env.Key != key {
		// hash collision with another key
		return nil, store.ErrNotFound
	}
	return []byte(env.Value), nil
}

func (s *Store) read(path string) (envelope, error) {
	var env envelope
	data, err := os.ReadFile(path)
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return env, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	path := s.path(key)
	env, err := s.read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err == nil && env.Key != key {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Keys reads every envelope in the directory. Unreadable files are skipped.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list store directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		env, err := s.read(filepath.Join(s.BasePath, name))
		if err != nil {
			continue
		}
		keys = append(keys, env.Key)
	}
	return keys, nil
}

var _ store.Full = (*Store)(nil)
