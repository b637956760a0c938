package wheel

import "time"

// snapAnimation interpolates the continuous position toward a settled index.
// It is advanced explicitly by Controller.Advance; nothing runs on its own.
type snapAnimation struct {
	from     float64
	delta    float64 // signed distance in slots, shorter arc when cycling
	duration time.Duration
	elapsed  time.Duration
}

// progress returns the fraction completed in [0, 1].
func (a *snapAnimation) progress() float64 {
	if a.duration <= 0 || a.elapsed >= a.duration {
		return 1
	}
	return float64(a.elapsed) / float64(a.duration)
}

func (a *snapAnimation) done() bool {
	return a.progress() >= 1
}

// value returns the unnormalized position at the current progress.
func (a *snapAnimation) value() float64 {
	return a.from + a.delta*a.progress()
}

// snapDuration scales the per-step duration by the distance in slots.
func snapDuration(step time.Duration, slots float64) time.Duration {
	if step <= 0 {
		return 0
	}
	if slots < 0 {
		slots = -slots
	}
	return time.Duration(float64(step) * slots)
}
