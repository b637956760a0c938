package main

import "time"

// HoldConfig tunes how a held direction key rotates the wheel.
//
// A hold is a synthetic drag: its travel, in slots, is integrated from a
// velocity that starts at StartSlotsPerS and ramps linearly to MaxSlotsPerS
// over AccelTime seconds.
type HoldConfig struct {
	StartSlotsPerS float64
	MaxSlotsPerS   float64
	AccelTime      float64 // seconds; 0 jumps straight to MaxSlotsPerS

	HoldTimeout time.Duration // auto-release if no hold events arrive in this duration
	MaxDt       float64       // max dt integrated per tick (seconds); 0 disables clamping
}

// HoldState is the reducer-owned state of the current hold gesture.
type HoldState struct {
	// Direction: -1, +1, or 0 when nothing is held.
	Direction int

	VelocitySlotsPerS float64

	// OffsetSlots is the signed travel of the synthetic drag since it began.
	OffsetSlots float64

	LastHeldAt  time.Time
	HoldBeganAt time.Time
}

// Active reports whether a hold gesture is running.
func (h HoldState) Active() bool { return h.Direction != 0 }

// pressHold starts or refreshes a hold. It reports whether a new gesture
// began (first press or reversed direction).
func pressHold(h HoldState, direction int, now time.Time, cfg HoldConfig) (HoldState, bool) {
	began := h.Direction != direction
	if began {
		h = HoldState{
			Direction:         direction,
			VelocitySlotsPerS: cfg.StartSlotsPerS,
			HoldBeganAt:       now,
		}
	}
	h.LastHeldAt = now
	return h, began
}

// stepHold integrates one tick. expired is true when no hold event arrived
// within HoldTimeout; the returned state is then inactive.
func stepHold(h HoldState, dt float64, now time.Time, cfg HoldConfig) (next HoldState, expired bool) {
	if !h.Active() {
		return h, false
	}
	if cfg.HoldTimeout > 0 && !h.LastHeldAt.IsZero() && now.Sub(h.LastHeldAt) > cfg.HoldTimeout {
		return HoldState{}, true
	}
	if dt <= 0 {
		return h, false
	}
	if cfg.MaxDt > 0 && dt > cfg.MaxDt {
		dt = cfg.MaxDt
	}

	if cfg.AccelTime <= 0 {
		h.VelocitySlotsPerS = cfg.MaxSlotsPerS
	} else {
		accel := (cfg.MaxSlotsPerS - cfg.StartSlotsPerS) / cfg.AccelTime
		h.VelocitySlotsPerS += accel * dt
		if h.VelocitySlotsPerS > cfg.MaxSlotsPerS {
			h.VelocitySlotsPerS = cfg.MaxSlotsPerS
		}
	}
	if h.VelocitySlotsPerS < 0 {
		h.VelocitySlotsPerS = 0
	}

	h.OffsetSlots += float64(h.Direction) * h.VelocitySlotsPerS * dt
	return h, false
}
