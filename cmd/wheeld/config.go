package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"wheelcontrol/internal/protocol"
	"wheelcontrol/wheel"
)

// Config is the top-level YAML configuration for the wheel daemon.
//
// Layering: DefaultConfig, then the file (LoadConfigFile), then flag
// overrides (FlagOverrides.Apply), then Validate.
type Config struct {
	Wheel      WheelConfig         `yaml:"wheel"`
	Appearance protocol.Appearance `yaml:"appearance"`
	Input      InputConfig         `yaml:"input"`
	IPC        IPCConfig           `yaml:"ipc"`
	HTTP       HTTPConfig          `yaml:"http"`
	Hooks      HooksConfig         `yaml:"hooks"`
	Logging    LoggingConfig       `yaml:"logging"`
}

type WheelConfig struct {
	Icons              []string `yaml:"icons"`
	PanDistancePerItem float64  `yaml:"pan_distance_per_item"`
	Cycling            bool     `yaml:"cycling"`
	StepByStep         bool     `yaml:"step_by_step"`
	AnimationMS        int      `yaml:"single_step_animation_ms"`
	RotationEnabled    bool     `yaml:"rotation_enabled"`
	InitialIndex       int      `yaml:"initial_index"`
	TickHz             int      `yaml:"tick_hz"`

	// IconStates maps slot index to normal|disabled|hidden. Missing slots are normal.
	IconStates map[int]string `yaml:"icon_states,omitempty"`
}

type InputConfig struct {
	// Devices are evdev nodes to read. Empty runs the daemon IPC-only.
	Devices []string `yaml:"devices,omitempty"`

	// DragPixelsPerCount scales REL_X counts into drag pixels.
	DragPixelsPerCount float64 `yaml:"drag_pixels_per_count"`

	Rotary RotaryFileConfig `yaml:"rotary"`
	Hold   HoldFileConfig   `yaml:"hold"`
}

type RotaryFileConfig struct {
	VelocityWindowMS   int     `yaml:"velocity_window_ms"`
	VelocityThreshold  int     `yaml:"velocity_threshold"`
	VelocityMultiplier float64 `yaml:"velocity_multiplier"`
}

type HoldFileConfig struct {
	StartSlotsPerSec float64 `yaml:"start_slots_per_sec"`
	MaxSlotsPerSec   float64 `yaml:"max_slots_per_sec"`
	AccelTimeSec     float64 `yaml:"accel_time_sec"`
	HoldTimeoutMS    int     `yaml:"hold_timeout_ms"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type HooksConfig struct {
	// OnSelect is run through "sh -c" whenever the committed selection
	// changes, with WHEEL_INDEX and WHEEL_ICON in its environment.
	OnSelect  string `yaml:"on_select,omitempty"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Wheel: WheelConfig{
			PanDistancePerItem: defaultPanDistance,
			Cycling:            true,
			StepByStep:         true,
			AnimationMS:        defaultAnimationMS,
			RotationEnabled:    true,
			TickHz:             defaultTickHz,
		},
		Input: InputConfig{
			DragPixelsPerCount: defaultDragPxPerCount,
			Rotary: RotaryFileConfig{
				VelocityWindowMS:   defaultRotaryVelocityWindowMS,
				VelocityThreshold:  defaultRotaryVelocityThreshold,
				VelocityMultiplier: defaultRotaryVelocityMultiplier,
			},
			Hold: HoldFileConfig{
				StartSlotsPerSec: defaultHoldStartSlotsPerS,
				MaxSlotsPerSec:   defaultHoldMaxSlotsPerSec,
				AccelTimeSec:     defaultHoldAccelTimeSec,
				HoldTimeoutMS:    defaultHoldTimeoutMS,
			},
		},
		IPC: IPCConfig{
			SocketPath: protocol.DefaultSocketPath,
		},
		HTTP: HTTPConfig{
			Port: defaultHTTPPort,
		},
		Hooks: HooksConfig{
			TimeoutMS: defaultHookTimeoutMS,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of the defaults.
// Unknown fields are rejected so typos surface at startup.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace and comments may follow the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds values from explicitly-set command line flags. A nil
// pointer means the flag was not given.
type FlagOverrides struct {
	InputDevice *string

	PanDistance *float64
	Cycling     *bool
	StepByStep  *bool
	AnimationMS *int
	TickHz      *int

	IPCSocketPath *string
	HTTPPort      *int
	OnSelectHook  *string

	LogLevel *string
}

// Apply merges the overrides into cfg. A non-nil pointer is applied even if
// it holds the zero value.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}
	if o.PanDistance != nil {
		cfg.Wheel.PanDistancePerItem = *o.PanDistance
	}
	if o.Cycling != nil {
		cfg.Wheel.Cycling = *o.Cycling
	}
	if o.StepByStep != nil {
		cfg.Wheel.StepByStep = *o.StepByStep
	}
	if o.AnimationMS != nil {
		cfg.Wheel.AnimationMS = *o.AnimationMS
	}
	if o.TickHz != nil {
		cfg.Wheel.TickHz = *o.TickHz
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.HTTPPort != nil {
		cfg.HTTP.Port = *o.HTTPPort
	}
	if o.OnSelectHook != nil {
		cfg.Hooks.OnSelect = *o.OnSelectHook
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after defaults, file and overrides are applied.
func (c *Config) Validate() error {
	n := len(c.Wheel.Icons)

	if !(c.Wheel.PanDistancePerItem > 0) {
		return errors.New("wheel.pan_distance_per_item must be > 0")
	}
	if c.Wheel.AnimationMS < 0 {
		return errors.New("wheel.single_step_animation_ms must be >= 0")
	}
	if c.Wheel.TickHz <= 0 || c.Wheel.TickHz > 1000 {
		return errors.New("wheel.tick_hz must be between 1 and 1000")
	}
	if n == 0 && c.Wheel.InitialIndex != 0 {
		return errors.New("wheel.initial_index must be 0 when wheel.icons is empty")
	}
	if n > 0 && (c.Wheel.InitialIndex < 0 || c.Wheel.InitialIndex >= n) {
		return fmt.Errorf("wheel.initial_index must be between 0 and %d", n-1)
	}
	for i, s := range c.Wheel.IconStates {
		if i < 0 || i >= n {
			return fmt.Errorf("wheel.icon_states[%d]: index out of range (%d icons)", i, n)
		}
		if _, err := wheel.ParseVisibility(s); err != nil {
			return fmt.Errorf("wheel.icon_states[%d]: %w", i, err)
		}
	}

	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}
	if !(c.Input.DragPixelsPerCount > 0) {
		return errors.New("input.drag_pixels_per_count must be > 0")
	}
	if c.Input.Rotary.VelocityWindowMS < 0 {
		return errors.New("input.rotary.velocity_window_ms must be >= 0")
	}
	if c.Input.Rotary.VelocityThreshold < 0 {
		return errors.New("input.rotary.velocity_threshold must be >= 0")
	}
	if c.Input.Rotary.VelocityMultiplier < 1 {
		return errors.New("input.rotary.velocity_multiplier must be >= 1")
	}
	h := c.Input.Hold
	if h.StartSlotsPerSec < 0 || h.MaxSlotsPerSec < 0 {
		return errors.New("input.hold slot rates must be >= 0")
	}
	if h.StartSlotsPerSec > h.MaxSlotsPerSec {
		return errors.New("input.hold.start_slots_per_sec must be <= input.hold.max_slots_per_sec")
	}
	if h.AccelTimeSec < 0 {
		return errors.New("input.hold.accel_time_sec must be >= 0")
	}
	if h.HoldTimeoutMS < 0 {
		return errors.New("input.hold.hold_timeout_ms must be >= 0")
	}

	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port must be between 0 (disabled) and 65535")
	}
	if c.Hooks.OnSelect != "" && c.Hooks.TimeoutMS <= 0 {
		return errors.New("hooks.timeout_ms must be > 0 when hooks.on_select is set")
	}

	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ToWheelConfig maps the wheel section onto the controller configuration.
func (c *Config) ToWheelConfig() wheel.Config {
	return wheel.Config{
		PanDistancePerItem:          c.Wheel.PanDistancePerItem,
		Cycling:                     c.Wheel.Cycling,
		StepByStep:                  c.Wheel.StepByStep,
		SingleStepAnimationDuration: time.Duration(c.Wheel.AnimationMS) * time.Millisecond,
		RotationDisabled:            !c.Wheel.RotationEnabled,
	}
}

// IconStateTable returns the parsed wheel.icon_states. Validate first.
func (c *Config) IconStateTable() map[int]wheel.Visibility {
	out := make(map[int]wheel.Visibility, len(c.Wheel.IconStates))
	for i, s := range c.Wheel.IconStates {
		v, err := wheel.ParseVisibility(s)
		if err != nil || v == wheel.Normal {
			continue
		}
		out[i] = v
	}
	return out
}

func (c *Config) ToRotaryConfig() RotaryConfig {
	return RotaryConfig{
		VelocityWindow:     time.Duration(c.Input.Rotary.VelocityWindowMS) * time.Millisecond,
		VelocityThreshold:  c.Input.Rotary.VelocityThreshold,
		VelocityMultiplier: c.Input.Rotary.VelocityMultiplier,
	}
}

func (c *Config) ToHoldConfig() HoldConfig {
	return HoldConfig{
		StartSlotsPerS: c.Input.Hold.StartSlotsPerSec,
		MaxSlotsPerS:   c.Input.Hold.MaxSlotsPerSec,
		AccelTime:      c.Input.Hold.AccelTimeSec,
		HoldTimeout:    time.Duration(c.Input.Hold.HoldTimeoutMS) * time.Millisecond,
		MaxDt:          2.0 / float64(c.Wheel.TickHz),
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
