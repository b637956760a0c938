package main

import (
	"math"
	"time"
)

// RotaryConfig is the encoder velocity policy: when at least
// VelocityThreshold same-direction detents land inside VelocityWindow, the
// turn is scaled by VelocityMultiplier.
type RotaryConfig struct {
	VelocityWindow     time.Duration
	VelocityThreshold  int
	VelocityMultiplier float64
}

// RotaryReducerState tracks recent detents for velocity detection. It is
// owned by the reducer.
type RotaryReducerState struct {
	RecentSteps []RotaryReducerStep
}

// RotaryReducerStep is one observed detent. Direction is -1 or +1.
type RotaryReducerStep struct {
	At        time.Time
	Direction int
}

// addTurn records a turn of steps detents at time at and returns the updated
// state together with the number of slots the wheel should move.
func (r RotaryReducerState) addTurn(steps int, at time.Time, cfg RotaryConfig) (RotaryReducerState, int) {
	if steps == 0 {
		return r, 0
	}
	dir := 1
	count := steps
	if steps < 0 {
		dir = -1
		count = -steps
	}

	cutoff := at.Add(-cfg.VelocityWindow)
	kept := make([]RotaryReducerStep, 0, len(r.RecentSteps)+count)
	for _, s := range r.RecentSteps {
		if s.At.After(cutoff) {
			kept = append(kept, s)
		}
	}
	for i := 0; i < count; i++ {
		kept = append(kept, RotaryReducerStep{At: at, Direction: dir})
	}

	sameDir := 0
	for _, s := range kept {
		if s.Direction == dir {
			sameDir++
		}
	}

	out := steps
	if cfg.VelocityThreshold > 0 && sameDir >= cfg.VelocityThreshold && cfg.VelocityMultiplier > 1 {
		out = int(math.Round(float64(steps) * cfg.VelocityMultiplier))
	}
	return RotaryReducerState{RecentSteps: kept}, out
}
