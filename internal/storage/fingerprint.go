// Device fingerprinting for view deduplication.

package storage

import (
	"strconv"
	"strings"
)

// Signals are the client environment values a device fingerprint is derived
// from.
type Signals struct {
	UserAgent      string
	Language       string
	ScreenWidth    int
	ScreenHeight   int
	TimezoneOffset int // minutes from UTC
}

// Fingerprint hashes the signals into a short opaque device token used to
// dedupe view counting. It is a best-effort, non-adversarial identity: two
// devices with identical environments collide, and a hostile client can spoof
// it. Good enough to not count casual page reloads twice.
func Fingerprint(sig Signals) string {
	joined := strings.Join([]string{
		sig.UserAgent,
		sig.Language,
		strconv.Itoa(sig.ScreenWidth),
		strconv.Itoa(sig.ScreenHeight),
		strconv.Itoa(sig.TimezoneOffset),
	}, "|")
	var h int32
	for _, r := range joined {
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return "device_" + strconv.FormatInt(v, 36)
}
