// Time-derived entity ID generation with collision avoidance.

package models

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

var (
	idMu     sync.Mutex
	idLastMs int64
)

// timestampMs returns the current time in milliseconds, bumped past the
// previous value so IDs generated in the same millisecond stay distinct and
// monotonically increasing within a process.
func timestampMs() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	ms := time.Now().UnixMilli()
	if ms <= idLastMs {
		ms = idLastMs + 1
	}
	idLastMs = ms
	return ms
}

// NewProfileID returns a new unique profile identifier.
func NewProfileID() string {
	return fmt.Sprintf("profile-%d", timestampMs())
}

// NewLinkID returns a new unique link identifier.
func NewLinkID() string {
	return fmt.Sprintf("link-%d-%d", timestampMs(), rand.N(1000))
}

// NewBadgeID returns a new unique custom badge identifier.
func NewBadgeID() string {
	return fmt.Sprintf("badge-%d-%d", timestampMs(), rand.N(1000))
}

// NewUserID returns a new unique account identifier.
func NewUserID() string {
	return fmt.Sprintf("user-%d-%d", timestampMs(), rand.N(1000))
}
