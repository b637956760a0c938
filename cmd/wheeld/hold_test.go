package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testHoldConfig = HoldConfig{
	StartSlotsPerS: 2,
	MaxSlotsPerS:   8,
	AccelTime:      1,
	HoldTimeout:    600 * time.Millisecond,
}

func TestPressHold_StartsAndRefreshes(t *testing.T) {
	now := time.Unix(100, 0)

	h, began := pressHold(HoldState{}, 1, now, testHoldConfig)
	assert.True(t, began)
	assert.Equal(t, 1, h.Direction)
	assert.Equal(t, 2.0, h.VelocitySlotsPerS)

	h.OffsetSlots = 0.4
	later := now.Add(100 * time.Millisecond)
	h, began = pressHold(h, 1, later, testHoldConfig)
	assert.False(t, began, "auto-repeat continues the gesture")
	assert.Equal(t, 0.4, h.OffsetSlots)
	assert.Equal(t, later, h.LastHeldAt)

	h, began = pressHold(h, -1, later, testHoldConfig)
	assert.True(t, began, "reversal starts a new gesture")
	assert.Equal(t, 0.0, h.OffsetSlots)
}

func TestStepHold_AcceleratesToMax(t *testing.T) {
	now := time.Unix(100, 0)
	h, _ := pressHold(HoldState{}, -1, now, testHoldConfig)

	h, expired := stepHold(h, 0.5, now, testHoldConfig)
	assert.False(t, expired)
	assert.InDelta(t, 5.0, h.VelocitySlotsPerS, 1e-9)
	assert.InDelta(t, -2.5, h.OffsetSlots, 1e-9)

	h, _ = stepHold(h, 1, now, testHoldConfig)
	assert.Equal(t, 8.0, h.VelocitySlotsPerS)
}

func TestStepHold_ClampsDt(t *testing.T) {
	now := time.Unix(100, 0)
	cfg := HoldConfig{StartSlotsPerS: 4, MaxSlotsPerS: 4, MaxDt: 0.05, HoldTimeout: time.Second}
	h, _ := pressHold(HoldState{}, 1, now, cfg)

	h, _ = stepHold(h, 2, now, cfg)
	assert.InDelta(t, 0.2, h.OffsetSlots, 1e-9)
}

func TestStepHold_Expires(t *testing.T) {
	now := time.Unix(100, 0)
	h, _ := pressHold(HoldState{}, 1, now, testHoldConfig)

	h, expired := stepHold(h, 0.016, now.Add(601*time.Millisecond), testHoldConfig)
	assert.True(t, expired)
	assert.False(t, h.Active())
}

func TestStepHold_InactiveIsNoop(t *testing.T) {
	h, expired := stepHold(HoldState{}, 1, time.Unix(100, 0), testHoldConfig)
	assert.False(t, expired)
	assert.Equal(t, HoldState{}, h)
}
