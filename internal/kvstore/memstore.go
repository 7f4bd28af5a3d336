package kvstore

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store with an optional byte quota.
type MemStore struct {
	mu       sync.RWMutex
	maxBytes int64
	used     int64
	entries  map[string]string
}

// NewMemStore creates an in-memory store. maxBytes of 0 disables the quota.
func NewMemStore(maxBytes int64) *MemStore {
	return &MemStore{maxBytes: maxBytes, entries: map[string]string{}}
}

// Get returns the value for key and whether it exists.
func (s *MemStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set writes value under key, overwriting any previous value.
func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.used + entrySize(key, value)
	if prev, ok := s.entries[key]; ok {
		used -= entrySize(key, prev)
	}
	if s.maxBytes > 0 && used > s.maxBytes {
		return ErrQuotaExceeded
	}
	s.entries[key] = value
	s.used = used
	return nil
}

// Delete removes key.
func (s *MemStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries[key]; ok {
		s.used -= entrySize(key, prev)
		delete(s.entries, key)
	}
}

// Keys returns a sorted snapshot of all keys.
func (s *MemStore) Keys() []string {
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
func (s *MemStore) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
