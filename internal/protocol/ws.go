package protocol

import (
	"encoding/json"
	"time"
)

// State WebSocket message types. Every frame is a JSON text message
// {type, ts, data}; the first one after connect is state_init.
const (
	MsgStateInit           = "state_init"
	MsgRotationStarted     = "rotation_started"
	MsgRotationUpdated     = "rotation_updated"
	MsgSelectionEnded      = "selection_ended"
	MsgFrame               = "frame"
	MsgIconsChanged        = "icons_changed"
	MsgIconStateChanged    = "icon_state_changed"
	MsgRotationLockChanged = "rotation_lock_changed"
)

// Message is the WS envelope as seen by a consumer.
type Message struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Appearance is renderer styling. The daemon never interprets it; it is
// handed to renderers in state_init.
type Appearance struct {
	IconInset       float64 `yaml:"icon_inset" json:"icon_inset"`
	BorderThickness float64 `yaml:"border_thickness" json:"border_thickness"`
	BorderColor     string  `yaml:"border_color,omitempty" json:"border_color,omitempty"`
	CircleColor     string  `yaml:"circle_color,omitempty" json:"circle_color,omitempty"`
	ShadowColor     string  `yaml:"shadow_color,omitempty" json:"shadow_color,omitempty"`
	ShadowOffsetX   float64 `yaml:"shadow_offset_x" json:"shadow_offset_x"`
	ShadowOffsetY   float64 `yaml:"shadow_offset_y" json:"shadow_offset_y"`
	ShadowOpacity   float64 `yaml:"shadow_opacity" json:"shadow_opacity"`
	ShadowRadius    float64 `yaml:"shadow_radius" json:"shadow_radius"`
	IconBlendMode   string  `yaml:"icon_blend_mode,omitempty" json:"icon_blend_mode,omitempty"`
}

// SlotInfo describes one slot in state_init.
type SlotInfo struct {
	Index int    `json:"index"`
	Icon  string `json:"icon"`
	State string `json:"state"`
}

// StateInit is the full snapshot sent on connect. Selected is null when the
// wheel has no slots.
type StateInit struct {
	Position   float64    `json:"position"`
	Selected   *int       `json:"selected"`
	Phase      string     `json:"phase"`
	Locked     bool       `json:"locked"`
	Cycling    bool       `json:"cycling"`
	Slots      []SlotInfo `json:"slots"`
	Appearance Appearance `json:"appearance"`
}

type RotationStarted struct {
	PreviousIndex int `json:"previous_index"`
}

type RotationUpdated struct {
	Position float64 `json:"position"`
}

type SelectionEnded struct {
	Index int    `json:"index"`
	Icon  string `json:"icon"`
}

// Frame is an animation frame while the wheel snaps.
type Frame struct {
	Position float64 `json:"position"`
	Phase    string  `json:"phase"`
}

type IconsChanged struct {
	Icons []string `json:"icons"`
}

type IconStateChanged struct {
	Index int    `json:"index"`
	State string `json:"state"`
}

type RotationLockChanged struct {
	Locked bool `json:"locked"`
}
