// Package protocol holds the wire types shared by the wheel daemon and its
// clients: IPC events, IPC responses and the state WebSocket messages.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"wheelcontrol/wheel"
)

// Event is anything the daemon loop can reduce. Wire events are decoded by
// UnmarshalEvent; the daemon adds its own internal events on top.
type Event interface {
	EventType() string
}

// Wire event type discriminators.
const (
	TypeDragBegin       = "drag_begin"
	TypeDragUpdate      = "drag_update"
	TypeDragMove        = "drag_move"
	TypeDragEnd         = "drag_end"
	TypeSelectIndex     = "select_index"
	TypeSetIcons        = "set_icons"
	TypeSetIconState    = "set_icon_state"
	TypeRotaryTurn      = "rotary_turn"
	TypeRotateHeld      = "rotate_held"
	TypeRotateRelease   = "rotate_release"
	TypeSetRotationLock = "set_rotation_lock"
)

// DragBegin opens a drag session at the current position.
type DragBegin struct{}

// DragUpdate carries the total drag translation since DragBegin, in pixels
// along the wheel's drag axis.
type DragUpdate struct {
	OffsetPx float64 `json:"offset_px"`
}

// DragMove carries a relative drag sample, added to the running offset.
type DragMove struct {
	DeltaPx float64 `json:"delta_px"`
}

// DragEnd closes the drag session and lets the wheel snap.
type DragEnd struct{}

// SelectIndex selects a slot programmatically.
type SelectIndex struct {
	Index    int  `json:"index"`
	Animated bool `json:"animated"`
}

// SetIcons replaces the slot set. An empty string is a placeholder slot.
type SetIcons struct {
	Icons []string `json:"icons"`
}

// SetIconState changes the visibility of one slot.
type SetIconState struct {
	Index int    `json:"index"`
	State string `json:"state"` // normal, disabled or hidden
}

func (e SetIconState) Validate() error {
	if e.Index < 0 {
		return fmt.Errorf("index must be >= 0, got %d", e.Index)
	}
	_, err := wheel.ParseVisibility(e.State)
	return err
}

// RotaryTurn is a raw encoder movement in detents.
type RotaryTurn struct {
	Steps int `json:"steps"` // positive moves toward higher indices
}

func (e RotaryTurn) Validate() error {
	if e.Steps == 0 {
		return errors.New("steps must not be 0")
	}
	return nil
}

// RotateHeld reports a held (or auto-repeating) direction key.
type RotateHeld struct {
	Direction int `json:"direction"` // -1 or +1
}

func (e RotateHeld) Validate() error {
	if e.Direction != -1 && e.Direction != 1 {
		return fmt.Errorf("direction must be -1 or 1, got %d", e.Direction)
	}
	return nil
}

// RotateRelease reports that all direction keys were released.
type RotateRelease struct{}

// SetRotationLock vetoes drag rotation while Locked is true.
type SetRotationLock struct {
	Locked bool `json:"locked"`
}

func (DragBegin) EventType() string       { return TypeDragBegin }
func (DragUpdate) EventType() string      { return TypeDragUpdate }
func (DragMove) EventType() string        { return TypeDragMove }
func (DragEnd) EventType() string         { return TypeDragEnd }
func (SelectIndex) EventType() string     { return TypeSelectIndex }
func (SetIcons) EventType() string        { return TypeSetIcons }
func (SetIconState) EventType() string    { return TypeSetIconState }
func (RotaryTurn) EventType() string      { return TypeRotaryTurn }
func (RotateHeld) EventType() string      { return TypeRotateHeld }
func (RotateRelease) EventType() string   { return TypeRotateRelease }
func (SetRotationLock) EventType() string { return TypeSetRotationLock }

// Envelope wraps an event with its type discriminator.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type validator interface {
	Validate() error
}

// UnmarshalEvent decodes and validates one JSON envelope.
func UnmarshalEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case TypeDragBegin:
		return DragBegin{}, nil
	case TypeDragUpdate:
		return decode[DragUpdate](env)
	case TypeDragMove:
		return decode[DragMove](env)
	case TypeDragEnd:
		return DragEnd{}, nil
	case TypeSelectIndex:
		return decode[SelectIndex](env)
	case TypeSetIcons:
		return decode[SetIcons](env)
	case TypeSetIconState:
		return decode[SetIconState](env)
	case TypeRotaryTurn:
		return decode[RotaryTurn](env)
	case TypeRotateHeld:
		return decode[RotateHeld](env)
	case TypeRotateRelease:
		return RotateRelease{}, nil
	case TypeSetRotationLock:
		return decode[SetRotationLock](env)
	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

func decode[T Event](env Envelope) (Event, error) {
	var v T
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, fmt.Errorf("%s: missing data", env.Type)
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	if vv, ok := any(v).(validator); ok {
		if err := vv.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
	}
	return v, nil
}

// MarshalEvent encodes e as an envelope. Events without fields carry no data.
func MarshalEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, errors.New("marshal event: nil event")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.EventType(), err)
	}
	env := Envelope{Type: e.EventType()}
	if !bytes.Equal(data, []byte("{}")) {
		env.Data = data
	}
	return json.Marshal(env)
}
