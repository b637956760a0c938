package main

import (
	"time"

	"wheelcontrol/internal/protocol"
)

// Event is the input to the reducer. Wire events (drag, select, icons,
// rotary, hold, lock) come from internal/protocol via IPC and input devices;
// the types below are produced inside the daemon.
type Event = protocol.Event

// TimedEvent stamps an external event with its arrival time. The daemon loop
// wraps everything it receives so the reducer never reads the clock.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (e TimedEvent) EventType() string {
	if e.Event == nil {
		return "timed"
	}
	return e.Event.EventType()
}

// Tick is emitted by the daemon loop at a fixed cadence.
// Dt is wall-clock delta in seconds between ticks.
type Tick struct {
	Now time.Time
	Dt  float64
}

func (Tick) EventType() string { return "tick" }

// RequestStateSnapshot asks the reducer for a coherent snapshot, delivered on
// Reply by the effects layer. Used for state_init on WS connect.
type RequestStateSnapshot struct {
	Reply chan StateSnapshot
}

func (RequestStateSnapshot) EventType() string { return "request_state_snapshot" }

// EffectFailed is fed back when executing a Command fails.
type EffectFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (EffectFailed) EventType() string { return "effect_failed" }
