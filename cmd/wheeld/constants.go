package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02

	KEY_LEFT  = 105
	KEY_RIGHT = 106
	KEY_UP    = 103
	KEY_DOWN  = 108

	BTN_LEFT = 0x110

	REL_X     = 0x00
	REL_DIAL  = 0x07
	REL_WHEEL = 0x08
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

const (
	defaultTickHz          = 60
	defaultPanDistance     = 100.0 // px per slot
	defaultAnimationMS     = 200   // per slot of travel
	defaultDragPxPerCount  = 1.0
	defaultHookTimeoutMS   = 2000
	defaultHTTPPort        = 3001
	defaultWSPath          = "/ws/state"
	defaultHealthzPath     = "/healthz"
	defaultEventQueueDepth = 64

	// Rotary encoder velocity detection
	defaultRotaryVelocityWindowMS   = 200
	defaultRotaryVelocityThreshold  = 3
	defaultRotaryVelocityMultiplier = 2.0

	// Held direction keys
	defaultHoldMaxSlotsPerSec = 8.0
	defaultHoldAccelTimeSec   = 1.0
	defaultHoldStartSlotsPerS = 2.0
	defaultHoldTimeoutMS      = 600
)
