package main

import (
	"log/slog"
	"time"

	"wheelcontrol/internal/protocol"
	"wheelcontrol/wheel"
)

// DaemonState is the top-level, daemon-owned state container. Only the
// daemon goroutine touches it; other goroutines get StateSnapshot copies via
// RequestStateSnapshot.
type DaemonState struct {
	// Wheel is the rotation controller. Its delegate closes over this state:
	// callbacks are recorded into notes and drained by the reducer.
	Wheel *wheel.Controller

	// IconStates holds non-normal slot visibilities, read by the delegate.
	IconStates map[int]wheel.Visibility

	// Locked vetoes drag rotation.
	Locked bool

	Appearance protocol.Appearance

	Rotary RotaryReducerState
	Hold   HoldState

	// Committed is the last selection reported to hooks.
	Committed      int
	CommittedKnown bool

	now   time.Time
	notes []StateBroadcast
}

// DaemonStateConfig seeds a new DaemonState.
type DaemonStateConfig struct {
	Wheel        wheel.Config
	Icons        []string
	InitialIndex int
	IconStates   map[int]wheel.Visibility
	Appearance   protocol.Appearance
	Logger       *slog.Logger
}

// NewDaemonState builds the state and its controller. The initial selection
// is applied without animation; its notification is left pending so the
// first reduction reports it.
func NewDaemonState(cfg DaemonStateConfig) *DaemonState {
	s := &DaemonState{
		IconStates: make(map[int]wheel.Visibility, len(cfg.IconStates)),
		Appearance: cfg.Appearance,
	}
	for i, v := range cfg.IconStates {
		s.IconStates[i] = v
	}

	var opts []wheel.Option
	if cfg.Logger != nil {
		opts = append(opts, wheel.WithLogger(cfg.Logger))
	}
	s.Wheel = wheel.New(cfg.Wheel, s.delegate(), opts...)
	s.Wheel.SetIcons(cfg.Icons)
	if len(cfg.Icons) > 0 {
		s.Wheel.SetSelectedIndex(cfg.InitialIndex, false)
	}
	return s
}

func (s *DaemonState) delegate() wheel.Delegate {
	return wheel.Delegate{
		OnStart: func(previous int) {
			s.notes = append(s.notes, BroadcastRotationStarted{PreviousIndex: previous, At: s.now})
		},
		OnUpdate: func(position float64) {
			s.notes = append(s.notes, BroadcastRotationUpdated{Position: position, At: s.now})
		},
		OnEnd: func(index int) {
			s.notes = append(s.notes, BroadcastSelectionEnded{Index: index, Icon: s.iconAt(index), At: s.now})
		},
		ShouldRotate: func(float64) bool {
			return !s.Locked
		},
		VisibilityFor: func(i int) wheel.Visibility {
			if v, ok := s.IconStates[i]; ok {
				return v
			}
			return wheel.Normal
		},
	}
}

// drainNotes returns and clears the delegate notifications recorded so far.
func (s *DaemonState) drainNotes() []StateBroadcast {
	out := s.notes
	s.notes = nil
	return out
}

func (s *DaemonState) iconAt(i int) string {
	slots := s.Wheel.Slots()
	if i < 0 || i >= len(slots) {
		return ""
	}
	return slots[i].Icon
}

// Icons returns the current slot identifiers.
func (s *DaemonState) Icons() []string {
	slots := s.Wheel.Slots()
	out := make([]string, len(slots))
	for i, sl := range slots {
		out[i] = sl.Icon
	}
	return out
}

// SetIconState records v for slot i and drops the controller's cached states.
func (s *DaemonState) SetIconState(i int, v wheel.Visibility) {
	if v == wheel.Normal {
		delete(s.IconStates, i)
	} else {
		s.IconStates[i] = v
	}
	s.Wheel.InvalidateIcons()
}

// pruneIconStates drops states for slots that no longer exist.
func (s *DaemonState) pruneIconStates() {
	n := s.Wheel.Len()
	for i := range s.IconStates {
		if i >= n {
			delete(s.IconStates, i)
		}
	}
}

// StateSnapshot is a read-only copy of DaemonState for other goroutines.
type StateSnapshot struct {
	Wheel      wheel.Snapshot
	Locked     bool
	Cycling    bool
	Appearance protocol.Appearance
}

// Snapshot captures the current state.
func (s *DaemonState) Snapshot() StateSnapshot {
	return StateSnapshot{
		Wheel:      s.Wheel.Snapshot(),
		Locked:     s.Locked,
		Cycling:    s.Wheel.Config().Cycling,
		Appearance: s.Appearance,
	}
}
