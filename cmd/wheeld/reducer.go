package main

import (
	"math"
	"time"

	"wheelcontrol/internal/protocol"
	"wheelcontrol/wheel"
)

// The reducer computes next state, commands and broadcasts from one event.
// It performs no I/O and never blocks; the daemon loop executes Commands and
// feeds failures back as EffectFailed.

// ReducerConfig is the policy configuration the reducer needs besides the
// controller's own wheel.Config.
type ReducerConfig struct {
	Rotary RotaryConfig
	Hold   HoldConfig

	// SelectHook enables CmdRunSelectHook on selection changes.
	SelectHook bool
}

// ReduceResult is the output of Reduce.
type ReduceResult struct {
	State      *DaemonState
	Commands   []Command
	Broadcasts []StateBroadcast
}

// Reduce applies e to s.
func Reduce(s *DaemonState, e Event, cfg ReducerConfig) ReduceResult {
	if s == nil {
		s = NewDaemonState(DaemonStateConfig{Wheel: wheel.DefaultConfig()})
	}

	if te, ok := e.(TimedEvent); ok {
		e = te.Event
		if !te.At.IsZero() {
			s.now = te.At
		}
	}

	var cmds []Command
	var out []StateBroadcast

	switch ev := e.(type) {
	case Tick:
		s.now = ev.Now
		s.stepHold(ev.Dt, cfg)
		if s.Wheel.Advance(secondsToDuration(ev.Dt)) {
			out = append(out, BroadcastFrame{
				Position: s.Wheel.Position(),
				Phase:    s.Wheel.Phase().String(),
				At:       s.now,
			})
		}

	case protocol.DragBegin:
		s.endHold()
		s.Wheel.BeginDrag()

	case protocol.DragUpdate:
		s.Wheel.UpdateDrag(ev.OffsetPx)

	case protocol.DragMove:
		s.Wheel.DragBy(ev.DeltaPx)

	case protocol.DragEnd:
		s.Wheel.EndDrag()

	case protocol.SelectIndex:
		s.endHold()
		s.Wheel.SetSelectedIndex(ev.Index, ev.Animated)

	case protocol.SetIcons:
		s.Hold = HoldState{}
		icons := append([]string(nil), ev.Icons...)
		s.Wheel.SetIcons(icons)
		s.pruneIconStates()
		s.CommittedKnown = false
		out = append(out, BroadcastIconsChanged{Icons: icons, At: s.now})

	case protocol.SetIconState:
		v, err := wheel.ParseVisibility(ev.State)
		if err != nil || ev.Index < 0 || ev.Index >= s.Wheel.Len() {
			break
		}
		s.SetIconState(ev.Index, v)
		out = append(out, BroadcastIconStateChanged{Index: ev.Index, State: v.String(), At: s.now})

	case protocol.RotaryTurn:
		s.endHold()
		var steps int
		s.Rotary, steps = s.Rotary.addTurn(ev.Steps, s.now, cfg.Rotary)
		if _, ok := s.Wheel.SelectedIndex(); ok && steps != 0 {
			s.Wheel.Step(steps, true)
		}

	case protocol.RotateHeld:
		if s.Locked {
			break
		}
		var began bool
		s.Hold, began = pressHold(s.Hold, ev.Direction, s.now, cfg.Hold)
		if began {
			s.Wheel.EndDrag()
			s.Wheel.BeginDrag()
		}

	case protocol.RotateRelease:
		s.endHold()

	case protocol.SetRotationLock:
		if s.Locked != ev.Locked {
			s.Locked = ev.Locked
			if ev.Locked {
				s.endHold()
			}
			out = append(out, BroadcastRotationLockChanged{Locked: ev.Locked, At: s.now})
		}

	case RequestStateSnapshot:
		cmds = append(cmds, CmdPublishStateSnapshot{Reply: ev.Reply, Snapshot: s.Snapshot()})

	case EffectFailed:
		// Keep state as-is; the effects layer already logged it.

	default:
		// Unknown event type: no-op.
	}

	notes := s.drainNotes()
	for _, n := range notes {
		end, ok := n.(BroadcastSelectionEnded)
		if !ok {
			continue
		}
		if cfg.SelectHook && (!s.CommittedKnown || s.Committed != end.Index) {
			cmds = append(cmds, CmdRunSelectHook{Index: end.Index, Icon: end.Icon})
		}
		s.Committed = end.Index
		s.CommittedKnown = true
	}

	return ReduceResult{
		State:      s,
		Commands:   cmds,
		Broadcasts: append(notes, out...),
	}
}

// stepHold advances the synthetic drag of a held direction key. Each whole
// slot of travel is committed as its own drag so the wheel walks slot by
// slot, reporting every selection.
func (s *DaemonState) stepHold(dt float64, cfg ReducerConfig) {
	if !s.Hold.Active() {
		return
	}
	next, expired := stepHold(s.Hold, dt, s.now, cfg.Hold)
	if expired {
		s.Hold = HoldState{}
		s.Wheel.EndDrag()
		return
	}
	s.Hold = next

	pan := s.Wheel.Config().PanDistancePerItem
	for math.Abs(s.Hold.OffsetSlots) >= 1 {
		dir := float64(s.Hold.Direction)
		s.Wheel.UpdateDrag(dir * pan)
		s.Wheel.EndDrag()
		s.Wheel.BeginDrag()
		s.Hold.OffsetSlots -= dir
	}
	s.Wheel.UpdateDrag(s.Hold.OffsetSlots * pan)
}

// endHold ends the hold gesture, if any, and lets the wheel snap.
func (s *DaemonState) endHold() {
	if !s.Hold.Active() {
		return
	}
	s.Hold = HoldState{}
	s.Wheel.EndDrag()
}

func secondsToDuration(sec float64) time.Duration {
	if !(sec > 0) {
		return 0
	}
	return time.Duration(sec * float64(time.Second))
}
