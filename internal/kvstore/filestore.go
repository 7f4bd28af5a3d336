package kvstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore is a Store persisted as a single JSON file holding the flat
// key-value map. Every mutation rewrites the file atomically (temp file plus
// rename), so a crash mid-write never leaves a torn store behind.
type FileStore struct {
	path     string
	maxBytes int64
	logger   *slog.Logger

	mu      sync.RWMutex
	entries map[string]string
	used    int64
}

// NewFileStore opens or creates the store at path. maxBytes of 0 disables
// the quota. An unreadable or corrupted file is logged and treated as empty;
// the file itself is left untouched until the next write.
func NewFileStore(path string, maxBytes int64, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	s := &FileStore{path: path, maxBytes: maxBytes, logger: logger}
	s.load()
	return s, nil
}

func (s *FileStore) load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string]string{}
	s.used = 0

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read store file, starting empty", "path", s.path, "err", err)
		}
		return
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("store file is corrupted, starting empty", "path", s.path, "err", err)
		return
	}
	s.entries = entries
	for k, v := range entries {
		s.used += entrySize(k, v)
	}
}

// Reload discards the in-memory map and re-reads the file. Used when an
// external process modified the store.
func (s *FileStore) Reload() {
	s.load()
}

// Get returns the value for key and whether it exists.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set writes value under key, overwriting any previous value.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.used + entrySize(key, value)
	prev, existed := s.entries[key]
	if existed {
		used -= entrySize(key, prev)
	}
	if s.maxBytes > 0 && used > s.maxBytes {
		return ErrQuotaExceeded
	}
	s.entries[key] = value
	if err := s.persistLocked(); err != nil {
		// Roll back so memory and disk stay consistent.
		if existed {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	s.used = used
	return nil
}

// Delete removes key. Persistence failures are logged; the in-memory removal
// stands and is flushed by the next successful write.
func (s *FileStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	s.used -= entrySize(key, prev)
	if err := s.persistLocked(); err != nil {
		s.logger.Warn("failed to persist store after delete", "key", key, "err", err)
	}
}

// Keys returns a sorted snapshot of all keys.
func (s *FileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Used returns the current accounted size in bytes.
func (s *FileStore) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// persistLocked writes the whole map to a temp file and renames it into
// place. Callers hold the write lock.
func (s *FileStore) persistLocked() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
