package ti3d

import "fmt"

// globalDebug enables the extra slot-bounds checks in hot paths. Set via
// SetDebugMode; off by default so release builds pay nothing.
var globalDebug bool

// SetDebugMode enables or disables debug mode. When enabled, out-of-range
// slot access inside the store panics with a descriptive message instead of
// corrupting adjacent column data.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// debugCheckSlot panics when slot is outside the store's column length.
// Out-of-range access is a programming error, not a recoverable condition.
func debugCheckSlot(s *Store, slot uint32, op string) {
	if int(slot) >= len(s.active) {
		panic(fmt.Sprintf("ti3d debug: %s on out-of-range slot %d (store has %d)", op, slot, len(s.active)))
	}
}
