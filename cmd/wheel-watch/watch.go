package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"wheelcontrol/internal/protocol"
	"wheelcontrol/wheel"
)

// watcher mirrors the daemon's wheel from the state stream and prints it as
// a text ring.
type watcher struct {
	out io.Writer

	icons    []string
	states   []string
	position float64
	selected int
	cycling  bool
	locked   bool
}

func newWatcher(out io.Writer) *watcher {
	return &watcher{out: out, cycling: true}
}

// handle processes one WS text frame.
func (w *watcher) handle(raw []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		fmt.Fprintf(w.out, "[TEXT] %s\n", string(raw))
		return
	}

	switch msg.Type {
	case protocol.MsgStateInit:
		var d protocol.StateInit
		if !w.decode(msg, &d) {
			return
		}
		w.icons = w.icons[:0]
		w.states = w.states[:0]
		for _, s := range d.Slots {
			w.icons = append(w.icons, s.Icon)
			w.states = append(w.states, s.State)
		}
		w.position = d.Position
		w.selected = 0
		if d.Selected != nil {
			w.selected = *d.Selected
		}
		w.cycling = d.Cycling
		w.locked = d.Locked
		fmt.Fprintf(w.out, "[INIT] %s\n", w.ring())

	case protocol.MsgRotationStarted:
		var d protocol.RotationStarted
		if w.decode(msg, &d) {
			fmt.Fprintf(w.out, "[START] from %d\n", d.PreviousIndex)
		}

	case protocol.MsgRotationUpdated:
		var d protocol.RotationUpdated
		if w.decode(msg, &d) {
			w.position = d.Position
			fmt.Fprintf(w.out, "[DRAG] %s\n", w.ring())
		}

	case protocol.MsgFrame:
		var d protocol.Frame
		if w.decode(msg, &d) {
			w.position = d.Position
			fmt.Fprintf(w.out, "[FRAME] %-8s %s\n", d.Phase, w.ring())
		}

	case protocol.MsgSelectionEnded:
		var d protocol.SelectionEnded
		if w.decode(msg, &d) {
			w.selected = d.Index
			fmt.Fprintf(w.out, "[SELECT] %d %q\n", d.Index, d.Icon)
		}

	case protocol.MsgIconsChanged:
		var d protocol.IconsChanged
		if !w.decode(msg, &d) {
			return
		}
		w.icons = append(w.icons[:0], d.Icons...)
		w.states = make([]string, len(d.Icons))
		for i := range w.states {
			w.states[i] = wheel.Normal.String()
		}
		w.position, w.selected = 0, 0
		fmt.Fprintf(w.out, "[ICONS] %s\n", w.ring())

	case protocol.MsgIconStateChanged:
		var d protocol.IconStateChanged
		if !w.decode(msg, &d) {
			return
		}
		if d.Index >= 0 && d.Index < len(w.states) {
			w.states[d.Index] = d.State
		}
		fmt.Fprintf(w.out, "[STATE] %d %s\n", d.Index, d.State)

	case protocol.MsgRotationLockChanged:
		var d protocol.RotationLockChanged
		if w.decode(msg, &d) {
			w.locked = d.Locked
			fmt.Fprintf(w.out, "[LOCK] %t\n", d.Locked)
		}

	default:
		var v any
		_ = json.Unmarshal(raw, &v)
		pretty, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintf(w.out, "[MESSAGE]\n%s\n", string(pretty))
	}
}

func (w *watcher) decode(msg protocol.Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		fmt.Fprintf(w.out, "[ERROR] bad %s payload: %v\n", msg.Type, err)
		return false
	}
	return true
}

// ring renders the slots. The committed slot is in [brackets], the slot under
// the pointer (when different) in <angle brackets>. Disabled slots are in
// (parentheses), hidden ones print as "~" and placeholders as "_".
func (w *watcher) ring() string {
	n := len(w.icons)
	if n == 0 {
		return "(empty)"
	}
	under := wheel.NearestIndex(w.position, n, w.cycling)

	var b strings.Builder
	fmt.Fprintf(&b, "%6.2f |", w.position)
	for i, icon := range w.icons {
		label := icon
		if label == "" {
			label = "_"
		}
		switch w.states[i] {
		case wheel.Hidden.String():
			label = "~"
		case wheel.Disabled.String():
			label = "(" + label + ")"
		}
		switch {
		case i == w.selected:
			label = "[" + label + "]"
		case i == under:
			label = "<" + label + ">"
		}
		b.WriteString(" ")
		b.WriteString(label)
	}
	if w.locked {
		b.WriteString(" | locked")
	}
	return b.String()
}
