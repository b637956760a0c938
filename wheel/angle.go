package wheel

import "math"

// PositionFromDrag converts a drag translation (in pixels, already projected
// onto the wheel's drag axis) into a continuous position relative to anchor.
// A positive offset moves toward higher indices.
//
// A non-positive panDistancePerItem is treated as "no movement".
func PositionFromDrag(anchor, offsetPx, panDistancePerItem float64) float64 {
	if panDistancePerItem <= 0 || math.IsNaN(panDistancePerItem) {
		return anchor
	}
	return anchor + offsetPx/panDistancePerItem
}

// Normalize maps an unbounded position onto the wheel.
//
// With cycling the result is in [0, n). Without cycling it is clamped to
// [0, n-1]. n < 1 and NaN yield 0, as does ±Inf when cycling.
func Normalize(position float64, n int, cycling bool) float64 {
	if n < 1 || math.IsNaN(position) {
		return 0
	}
	fn := float64(n)
	if !cycling {
		return clamp(position, 0, fn-1)
	}
	if math.IsInf(position, 0) {
		return 0
	}
	m := math.Mod(math.Mod(position, fn)+fn, fn)
	// Mod can return fn itself for tiny negative inputs.
	if m >= fn {
		m = 0
	}
	return m
}

// NearestIndex rounds position to the closest slot. Exact half-way values
// round toward the higher index (2.5 -> 3). The result wraps when cycling and
// is clamped otherwise.
func NearestIndex(position float64, n int, cycling bool) int {
	if n < 1 || math.IsNaN(position) {
		return 0
	}
	if math.IsInf(position, 0) {
		position = Normalize(position, n, cycling)
	}
	idx := int(math.Floor(position + 0.5))
	return wrapIndex(idx, n, cycling)
}

// Distance returns the signed number of slots to travel from one position to
// another. When cycling the shorter arc is chosen; on an exact tie the
// positive direction wins.
func Distance(from, to float64, n int, cycling bool) float64 {
	d := to - from
	if !cycling || n < 1 {
		return d
	}
	fn := float64(n)
	d = math.Mod(d, fn)
	if d > fn/2 {
		d -= fn
	} else if d <= -fn/2 {
		d += fn
	}
	return d
}

func wrapIndex(i, n int, cycling bool) int {
	if n < 1 {
		return 0
	}
	if cycling {
		return ((i % n) + n) % n
	}
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
