// Package wheel implements the rotation state machine of a circular
// selector: a ring of icon slots that is rotated by dragging, snaps to the
// nearest visible slot and reports progress through an optional Delegate.
//
// Drawing is left to the caller. A renderer reads Controller.Snapshot (or
// Position and Visibility) after each event or Advance tick.
package wheel
