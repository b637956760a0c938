package wheel

import (
	"fmt"
	"strings"
)

// Visibility is the per-slot icon state reported by the delegate.
type Visibility int

const (
	Normal   Visibility = 1
	Disabled Visibility = 2
	Hidden   Visibility = 3
)

func (v Visibility) String() string {
	switch v {
	case Normal:
		return "normal"
	case Disabled:
		return "disabled"
	case Hidden:
		return "hidden"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// ParseVisibility accepts "normal", "disabled" or "hidden" (case-insensitive).
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return Normal, nil
	case "disabled":
		return Disabled, nil
	case "hidden":
		return Hidden, nil
	default:
		return 0, fmt.Errorf("invalid icon state: %q (must be normal, disabled or hidden)", s)
	}
}

// Slot is one discrete position on the wheel. An empty Icon marks a
// placeholder slot that carries no icon.
type Slot struct {
	Index int
	Icon  string
}

// Empty reports whether the slot is a placeholder.
func (s Slot) Empty() bool { return s.Icon == "" }

func newSlots(icons []string) []Slot {
	if len(icons) == 0 {
		return nil
	}
	slots := make([]Slot, len(icons))
	for i, icon := range icons {
		slots[i] = Slot{Index: i, Icon: icon}
	}
	return slots
}

// iconTable lazily resolves and caches per-slot visibility. The cache lives
// for one settle cycle and is dropped by invalidate.
type iconTable struct {
	n      int
	query  func(int) Visibility
	cache  []Visibility
	cached []bool
}

func newIconTable(n int, query func(int) Visibility) *iconTable {
	return &iconTable{
		n:      n,
		query:  query,
		cache:  make([]Visibility, n),
		cached: make([]bool, n),
	}
}

func (t *iconTable) invalidate() {
	for i := range t.cached {
		t.cached[i] = false
	}
}

// visibilityOf returns Normal for out-of-range indices and when no query is
// configured.
func (t *iconTable) visibilityOf(i int) Visibility {
	if i < 0 || i >= t.n {
		return Normal
	}
	if t.cached[i] {
		return t.cache[i]
	}
	v := Normal
	if t.query != nil {
		v = t.query(i)
		if v != Disabled && v != Hidden {
			v = Normal
		}
	}
	t.cache[i] = v
	t.cached[i] = true
	return v
}

// nearestVisible scans from `from` in direction dir (+1 or -1) for a Normal
// slot. With cycling the scan wraps and visits every slot once. Without
// cycling it runs to the end of the ring in dir and then falls back to the
// opposite side, so false means no Normal slot exists at all.
func (t *iconTable) nearestVisible(from, dir int, cycling bool) (int, bool) {
	if t.n < 1 {
		return 0, false
	}
	if dir >= 0 {
		dir = 1
	} else {
		dir = -1
	}
	from = wrapIndex(from, t.n, cycling)

	if cycling {
		for k := 0; k < t.n; k++ {
			i := wrapIndex(from+k*dir, t.n, true)
			if t.visibilityOf(i) == Normal {
				return i, true
			}
		}
		return 0, false
	}

	for i := from; i >= 0 && i < t.n; i += dir {
		if t.visibilityOf(i) == Normal {
			return i, true
		}
	}
	for i := from - dir; i >= 0 && i < t.n; i -= dir {
		if t.visibilityOf(i) == Normal {
			return i, true
		}
	}
	return 0, false
}
