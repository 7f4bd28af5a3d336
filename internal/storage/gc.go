// Garbage collection of orphaned media entries.

package storage

import (
	"log/slog"
	"strings"

	"github.com/starzzy/wraith/internal/kvstore"
)

// collectGarbage removes media entries no longer referenced by any profile in
// the persisted list. It runs at the start of every save, so a field
// overwritten with a new large value frees its previous entry within the same
// save cycle.
//
// Best-effort housekeeping: an unreadable profiles entry skips the pass and
// never aborts the ongoing save.
func collectGarbage(store kvstore.Store, logger *slog.Logger) {
	profiles, err := decodeStoredProfiles(store)
	if err != nil {
		logger.Warn("garbage collection skipped, stored profiles unreadable", "err", err)
		return
	}
	used := mediaKeysInUse(profiles)
	removed := 0
	for _, key := range store.Keys() {
		if strings.HasPrefix(key, mediaPrefix) && !used[key] {
			store.Delete(key)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("removed unused media entries", "count", removed)
	}
}

// evictLegacyMedia removes stranded media entries matching the legacy "_old_"
// naming convention. Invoked only after a persistence write hits the storage
// quota; the current key scheme never produces such keys, so on a healthy
// store this pass removes nothing.
func evictLegacyMedia(store kvstore.Store, logger *slog.Logger) {
	removed := 0
	for _, key := range store.Keys() {
		if strings.HasPrefix(key, mediaPrefix) && strings.Contains(key, "_old_") {
			store.Delete(key)
			removed++
		}
	}
	if removed > 0 {
		logger.Info("evicted legacy media entries to free space", "count", removed)
	}
}
