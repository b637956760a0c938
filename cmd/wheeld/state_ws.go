package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"wheelcontrol/internal/protocol"
)

// The state stream: every renderer first gets a state_init built from a
// snapshot taken on the daemon goroutine, then the reducer's broadcasts as
// {type, ts, data} messages.

// wsOutboundEvent is a typed, externally consumable state event.
type wsOutboundEvent struct {
	Type string
	Data any
	At   time.Time // zero means now
}

// envelope is the wire format envelope for WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

func marshalOutbound(ev wsOutboundEvent) ([]byte, error) {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	return json.Marshal(envelope{Type: ev.Type, Ts: &ts, Data: ev.Data})
}

// wsCoalesceWindow is the longest bursty rotation_updated and frame
// messages are held back (latest wins) before going out.
const wsCoalesceWindow = 50 * time.Millisecond

// StateServer upgrades renderer connections on the state stream path.
type StateServer struct {
	logger *slog.Logger
	hub    *Hub

	// Snapshot requests for state_init go through the daemon loop.
	events chan<- Event
}

// NewStateServer constructs the WS state server. Start hub.Run and
// RunBroadcaster separately.
func NewStateServer(logger *slog.Logger, events chan<- Event, cfg HubConfig) *StateServer {
	return &StateServer{
		logger: logger,
		hub:    NewHub(logger, cfg),
		events: events,
	}
}

func (s *StateServer) Hub() *Hub { return s.hub }

var upgrader = websocket.Upgrader{
	// Renderers are local; origin checks belong to a reverse proxy if any.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades, registers the renderer and sends state_init.
func (s *StateServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	rd := newRenderer(s.hub, conn, r.RemoteAddr, s.logger)
	s.hub.add(rd)

	// The loops outlive the handler.
	go rd.writeLoop()
	go rd.readLoop()

	if s.events == nil {
		return
	}

	reply := make(chan StateSnapshot, 1)
	select {
	case <-r.Context().Done():
		return
	case s.events <- RequestStateSnapshot{Reply: reply}:
	}

	waitCtx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	select {
	case <-waitCtx.Done():
		if !errors.Is(waitCtx.Err(), context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", waitCtx.Err())
		}
		return

	case snap := <-reply:
		msg, err := marshalOutbound(wsOutboundEvent{Type: protocol.MsgStateInit, Data: stateInitPayload(snap)})
		if err != nil {
			s.logger.Warn("ws state_init marshal failed", "error", err)
			return
		}
		if !s.hub.deliver(rd, msg) {
			s.hub.disconnect(rd, "state_init not delivered")
		}
	}
}

func stateInitPayload(snap StateSnapshot) protocol.StateInit {
	out := protocol.StateInit{
		Position:   snap.Wheel.Position,
		Phase:      snap.Wheel.Phase.String(),
		Locked:     snap.Locked,
		Cycling:    snap.Cycling,
		Slots:      make([]protocol.SlotInfo, len(snap.Wheel.Slots)),
		Appearance: snap.Appearance,
	}
	if snap.Wheel.HasSelection {
		sel := snap.Wheel.Selected
		out.Selected = &sel
	}
	for i, sl := range snap.Wheel.Slots {
		out.Slots[i] = protocol.SlotInfo{Index: sl.Index, Icon: sl.Icon, State: sl.Visibility.String()}
	}
	return out
}

// coalesced reports whether messages of this type are rate limited.
func coalesced(typ string) bool {
	return typ == protocol.MsgRotationUpdated || typ == protocol.MsgFrame
}

// RunBroadcaster reads reducer broadcasts, marshals them and fans them out
// through hub. rotation_updated and frame are flushed at most once per
// wsCoalesceWindow (latest wins, no debounce-on-silence); anything else
// flushes pending messages first and goes out immediately, so ordering is
// preserved.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan StateBroadcast, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	var pending []wsOutboundEvent // at most one per coalesced type, arrival order
	var timer *time.Timer
	var timerCh <-chan time.Time

	emit := func(ev wsOutboundEvent) {
		msg, err := marshalOutbound(ev)
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err, "type", ev.Type)
			return
		}
		if coalesced(ev.Type) {
			hub.broadcastPosition(msg)
			return
		}
		hub.BroadcastBytes(msg)
	}

	flushPending := func() {
		for _, ev := range pending {
			emit(ev)
		}
		pending = pending[:0]
	}

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = nil
		timerCh = nil
	}

	for {
		select {
		case <-ctx.Done():
			flushPending()
			stopTimer()
			return

		case <-timerCh:
			flushPending()
			stopTimer()

		case b, ok := <-src:
			if !ok {
				flushPending()
				stopTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			ev, ok := convertBroadcast(b)
			if !ok {
				continue
			}

			if coalesced(ev.Type) {
				replaced := false
				for i := range pending {
					if pending[i].Type == ev.Type {
						pending[i] = ev
						replaced = true
						break
					}
				}
				if !replaced {
					pending = append(pending, ev)
				}
				if timer == nil {
					timer = time.NewTimer(wsCoalesceWindow)
					timerCh = timer.C
				}
				continue
			}

			flushPending()
			stopTimer()
			emit(ev)
		}
	}
}

func convertBroadcast(b StateBroadcast) (wsOutboundEvent, bool) {
	switch ev := b.(type) {
	case BroadcastRotationStarted:
		return wsOutboundEvent{protocol.MsgRotationStarted, protocol.RotationStarted{PreviousIndex: ev.PreviousIndex}, ev.At}, true
	case BroadcastRotationUpdated:
		return wsOutboundEvent{protocol.MsgRotationUpdated, protocol.RotationUpdated{Position: ev.Position}, ev.At}, true
	case BroadcastSelectionEnded:
		return wsOutboundEvent{protocol.MsgSelectionEnded, protocol.SelectionEnded{Index: ev.Index, Icon: ev.Icon}, ev.At}, true
	case BroadcastFrame:
		return wsOutboundEvent{protocol.MsgFrame, protocol.Frame{Position: ev.Position, Phase: ev.Phase}, ev.At}, true
	case BroadcastIconsChanged:
		icons := ev.Icons
		if icons == nil {
			icons = []string{}
		}
		return wsOutboundEvent{protocol.MsgIconsChanged, protocol.IconsChanged{Icons: icons}, ev.At}, true
	case BroadcastIconStateChanged:
		return wsOutboundEvent{protocol.MsgIconStateChanged, protocol.IconStateChanged{Index: ev.Index, State: ev.State}, ev.At}, true
	case BroadcastRotationLockChanged:
		return wsOutboundEvent{protocol.MsgRotationLockChanged, protocol.RotationLockChanged{Locked: ev.Locked}, ev.At}, true
	default:
		return wsOutboundEvent{}, false
	}
}
