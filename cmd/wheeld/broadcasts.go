package main

import "time"

// StateBroadcast is a reducer-emitted state change for WS renderers. The
// broadcaster converts each one into a protocol message.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastRotationStarted: a drag session began.
type BroadcastRotationStarted struct {
	PreviousIndex int
	At            time.Time
}

// BroadcastRotationUpdated: an accepted drag sample moved the wheel.
type BroadcastRotationUpdated struct {
	Position float64
	At       time.Time
}

// BroadcastSelectionEnded: the wheel settled on Index.
type BroadcastSelectionEnded struct {
	Index int
	Icon  string
	At    time.Time
}

// BroadcastFrame: the snap animation advanced.
type BroadcastFrame struct {
	Position float64
	Phase    string
	At       time.Time
}

type BroadcastIconsChanged struct {
	Icons []string
	At    time.Time
}

type BroadcastIconStateChanged struct {
	Index int
	State string
	At    time.Time
}

type BroadcastRotationLockChanged struct {
	Locked bool
	At     time.Time
}

func (BroadcastRotationStarted) broadcastMarker()     {}
func (BroadcastRotationUpdated) broadcastMarker()     {}
func (BroadcastSelectionEnded) broadcastMarker()      {}
func (BroadcastFrame) broadcastMarker()               {}
func (BroadcastIconsChanged) broadcastMarker()        {}
func (BroadcastIconStateChanged) broadcastMarker()    {}
func (BroadcastRotationLockChanged) broadcastMarker() {}
