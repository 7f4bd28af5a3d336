// Package kvstore provides a flat, synchronous, string-keyed local storage
// medium with a finite capacity.
//
// The interface mirrors a browser's localStorage: string keys, string values,
// immediate non-suspending calls, and a quota that Set can hit at any time.
// Two implementations are provided: [MemStore] for tests and ephemeral use,
// and [FileStore] which persists the map as a single JSON file under the data
// directory.
package kvstore

import "errors"

// Store is a finite-capacity key-value storage medium.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool)
	// Set writes value under key, overwriting any previous value.
	// Returns ErrQuotaExceeded if the write would exceed the store's capacity.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string)
	// Keys returns a snapshot of all keys, sorted.
	Keys() []string
}

// ErrQuotaExceeded is returned by Store.Set when the write would push the
// store past its configured capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// entrySize is the quota cost of one entry: key length plus value length,
// matching how browsers account localStorage usage.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
