package wheel

import (
	"log/slog"
	"math"
	"time"
)

// Phase is the controller's state machine phase.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Snapping
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Snapping:
		return "snapping"
	default:
		return "unknown"
	}
}

type pendingSelect struct {
	index    int
	dir      int
	animated bool
}

// Controller owns the rotation state of one wheel: the continuous position,
// the committed index and the current drag session. It is not safe for
// concurrent use; a single goroutine feeds it gesture events, programmatic
// selections and animation ticks.
type Controller struct {
	cfg    Config
	slots  []Slot
	icons  *iconTable
	notify notifier
	logger *slog.Logger

	phase    Phase
	position float64
	selected int // meaningful only when len(slots) > 0

	// Drag session.
	anchor     float64
	raw        float64 // last accepted position before normalization
	dragOffset float64

	anim    snapAnimation
	pending *pendingSelect
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for debug tracing of policy decisions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an idle controller with no slots. Call SetIcons to populate it.
func New(cfg Config, d Delegate, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		notify: notifier{d: d},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.icons = newIconTable(0, c.notify.visibilityQuery())
	return c
}

// Config returns the active configuration.
func (c *Controller) Config() Config { return c.cfg }

// SetConfig replaces the configuration. It takes effect with the next event;
// an in-flight drag keeps its anchor.
func (c *Controller) SetConfig(cfg Config) { c.cfg = cfg }

// SetIcons replaces the slot set. Any drag, animation or queued selection is
// dropped without callbacks and the wheel resets to index 0.
func (c *Controller) SetIcons(icons []string) {
	if c.phase != Idle {
		c.logger.Debug("slot set replaced mid-flight, aborting", "phase", c.phase.String())
	}
	c.slots = newSlots(icons)
	c.icons = newIconTable(len(c.slots), c.notify.visibilityQuery())
	c.notify.abort()
	c.pending = nil
	c.anim = snapAnimation{}
	c.phase = Idle
	c.position = 0
	c.selected = 0
	c.anchor = 0
	c.raw = 0
	c.dragOffset = 0
}

// BeginDrag opens a drag session at the current position. Starting while a
// snap animation runs cancels it in place, so the wheel does not jump.
func (c *Controller) BeginDrag() {
	if len(c.slots) == 0 || c.cfg.RotationDisabled || c.phase == Dragging {
		return
	}
	c.anim = snapAnimation{}
	c.phase = Dragging
	c.anchor = c.position
	c.raw = c.position
	c.dragOffset = 0
	c.notify.start(c.selected)
}

// UpdateDrag moves the wheel by offsetPx, the total drag translation since
// BeginDrag. Samples vetoed by the delegate are dropped, and so are samples
// that do not map to a finite position.
func (c *Controller) UpdateDrag(offsetPx float64) {
	if c.phase != Dragging {
		return
	}
	raw := PositionFromDrag(c.anchor, offsetPx, c.cfg.PanDistancePerItem)
	if !finite(raw) || !finite(offsetPx) {
		c.logger.Debug("dropping non-finite drag sample", "offset_px", offsetPx)
		return
	}
	c.dragOffset = offsetPx
	if !(c.cfg.PanDistancePerItem > 0) {
		return
	}

	if c.cfg.StepByStep {
		raw = clamp(raw, c.anchor-1, c.anchor+1)
	}
	candidate := Normalize(raw, len(c.slots), c.cfg.Cycling)

	if !c.notify.shouldRotate(candidate) {
		c.logger.Debug("rotation vetoed", "candidate", candidate)
		return
	}
	c.raw = raw
	c.position = candidate
	c.notify.update(candidate)
}

// DragBy adds deltaPx to the current drag translation.
func (c *Controller) DragBy(deltaPx float64) {
	if c.phase != Dragging {
		return
	}
	c.UpdateDrag(c.dragOffset + deltaPx)
}

// EndDrag closes the drag session, resolves the landing slot and starts the
// snap animation. OnEnd reports the resolved index right away.
func (c *Controller) EndDrag() {
	if c.phase != Dragging {
		return
	}
	target := NearestIndex(c.position, len(c.slots), c.cfg.Cycling)
	dir := 1
	if c.raw < c.anchor {
		dir = -1
	}

	c.icons.invalidate()
	resolved, ok := c.icons.nearestVisible(target, dir, c.cfg.Cycling)
	if !ok {
		c.logger.Debug("no visible slot, keeping selection", "target", target, "selected", c.selected)
		resolved = c.selected
	}

	c.settle(resolved, true)
	c.notify.end(resolved)

	if p := c.pending; p != nil {
		c.pending = nil
		c.selectToward(p.index, p.dir, p.animated)
	}
}

// SetSelectedIndex selects index i, moving forward to the nearest visible
// slot when i is disabled or hidden. Out-of-range indices wrap when cycling
// and clamp otherwise. During a drag the request is queued (last one wins)
// and applied once the drag ends. OnEnd always fires, even if the selection
// does not change.
func (c *Controller) SetSelectedIndex(i int, animated bool) {
	c.selectToward(i, 1, animated)
}

// Step moves the selection by steps slots. A disabled or hidden landing slot
// is skipped in the direction of travel, so stepping backward past a hidden
// slot lands before it. Queuing and OnEnd behave as in SetSelectedIndex.
func (c *Controller) Step(steps int, animated bool) {
	if len(c.slots) == 0 || steps == 0 {
		return
	}
	dir := 1
	if steps < 0 {
		dir = -1
	}
	c.selectToward(c.selected+steps, dir, animated)
}

func (c *Controller) selectToward(i, dir int, animated bool) {
	n := len(c.slots)
	if n == 0 {
		return
	}
	if c.phase == Dragging {
		c.pending = &pendingSelect{index: i, dir: dir, animated: animated}
		return
	}

	c.icons.invalidate()
	resolved, ok := c.icons.nearestVisible(wrapIndex(i, n, c.cfg.Cycling), dir, c.cfg.Cycling)
	if !ok {
		c.logger.Debug("no visible slot, keeping selection", "requested", i, "selected", c.selected)
		resolved = c.selected
	}

	c.settle(resolved, animated)
	c.notify.end(resolved)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// settle commits index and either jumps to it or starts a snap animation
// from the current position.
func (c *Controller) settle(index int, animated bool) {
	n := len(c.slots)
	c.selected = index
	dest := float64(index)

	delta := Distance(c.position, dest, n, c.cfg.Cycling)
	d := snapDuration(c.cfg.SingleStepAnimationDuration, delta)
	if !animated || d <= 0 || delta == 0 {
		c.anim = snapAnimation{}
		c.position = dest
		c.phase = Idle
		return
	}

	c.anim = snapAnimation{from: c.position, delta: delta, duration: d}
	c.phase = Snapping
}

// Advance moves the snap animation forward by dt. It reports whether the
// position changed.
func (c *Controller) Advance(dt time.Duration) bool {
	if c.phase != Snapping || dt <= 0 {
		return false
	}
	c.anim.elapsed += dt
	if c.anim.done() {
		c.anim = snapAnimation{}
		c.position = float64(c.selected)
		c.phase = Idle
		return true
	}
	c.position = Normalize(c.anim.value(), len(c.slots), c.cfg.Cycling)
	return true
}

// InvalidateIcons drops cached icon states so the next read queries the
// delegate again.
func (c *Controller) InvalidateIcons() { c.icons.invalidate() }

// Len returns the number of slots.
func (c *Controller) Len() int { return len(c.slots) }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Position returns the continuous rotation position.
func (c *Controller) Position() float64 { return c.position }

// SelectedIndex returns the committed index; ok is false when the wheel has
// no slots.
func (c *Controller) SelectedIndex() (index int, ok bool) {
	if len(c.slots) == 0 {
		return 0, false
	}
	return c.selected, true
}

// Anchor returns the drag anchor while a drag session is open.
func (c *Controller) Anchor() (float64, bool) {
	if c.phase != Dragging {
		return 0, false
	}
	return c.anchor, true
}

// Dragging reports whether a drag session is open.
func (c *Controller) Dragging() bool { return c.phase == Dragging }

// Slots returns a copy of the slot set.
func (c *Controller) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Visibility returns the (cached) icon state of slot i.
func (c *Controller) Visibility(i int) Visibility { return c.icons.visibilityOf(i) }

// SlotState is a slot together with its icon state.
type SlotState struct {
	Slot
	Visibility Visibility
}

// Snapshot is a read-only copy of everything a renderer needs.
type Snapshot struct {
	Position     float64
	Selected     int
	HasSelection bool
	Phase        Phase
	Slots        []SlotState
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Position: c.position,
		Phase:    c.phase,
		Slots:    make([]SlotState, len(c.slots)),
	}
	s.Selected, s.HasSelection = c.SelectedIndex()
	for i, sl := range c.slots {
		s.Slots[i] = SlotState{Slot: sl, Visibility: c.icons.visibilityOf(i)}
	}
	return s
}
