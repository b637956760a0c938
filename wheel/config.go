package wheel

import "time"

// Config is the behavior configuration of a Controller. The zero value has
// rotation enabled, but its zero PanDistancePerItem turns drag updates into
// no-ops, so drags begin and end without moving the wheel. Programmatic
// selection works either way. Start from DefaultConfig.
type Config struct {
	// PanDistancePerItem is the drag distance, in pixels, that rotates the
	// wheel by one slot. Values <= 0 turn drag updates into no-ops.
	PanDistancePerItem float64

	// Cycling lets the wheel wrap from the last slot to the first and back.
	Cycling bool

	// StepByStep limits a single drag gesture to at most one slot of travel.
	StepByStep bool

	// SingleStepAnimationDuration is the snap time for one slot of travel.
	// Longer snaps scale linearly with distance; 0 snaps instantly.
	SingleStepAnimationDuration time.Duration

	// RotationDisabled ignores drag gestures. Programmatic selection still works.
	RotationDisabled bool
}

// DefaultConfig returns cycling, step-by-step rotation with a 100px pan per
// slot and a 200ms per-slot snap.
func DefaultConfig() Config {
	return Config{
		PanDistancePerItem:          100,
		Cycling:                     true,
		StepByStep:                  true,
		SingleStepAnimationDuration: 200 * time.Millisecond,
	}
}
