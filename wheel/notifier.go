package wheel

// Delegate holds the optional callbacks a host can attach to a Controller.
// Every field may be nil:
//
//   - OnStart: a drag session began; previousIndex is the committed index.
//   - OnUpdate: an accepted drag sample moved the wheel to position.
//   - OnEnd: the wheel settled (drag end or SetSelectedIndex) on newIndex.
//   - ShouldRotate: veto for a candidate drag position. nil allows everything.
//   - VisibilityFor: icon state of a slot. nil means every slot is Normal.
//
// All callbacks run synchronously on the goroutine driving the Controller.
type Delegate struct {
	OnStart       func(previousIndex int)
	OnUpdate      func(position float64)
	OnEnd         func(newIndex int)
	ShouldRotate  func(candidate float64) bool
	VisibilityFor func(index int) Visibility
}

// notifier sequences delegate callbacks: OnStart at most once per session and
// before any OnUpdate, OnUpdate only inside a session, OnEnd exactly once per
// settle.
type notifier struct {
	d         Delegate
	inSession bool
}

func (n *notifier) start(previousIndex int) {
	if n.inSession {
		return
	}
	n.inSession = true
	if n.d.OnStart != nil {
		n.d.OnStart(previousIndex)
	}
}

func (n *notifier) update(position float64) {
	if !n.inSession {
		return
	}
	if n.d.OnUpdate != nil {
		n.d.OnUpdate(position)
	}
}

// end closes the current session, if any, and reports the settled index.
// Programmatic sets call it without a preceding start.
func (n *notifier) end(newIndex int) {
	n.inSession = false
	if n.d.OnEnd != nil {
		n.d.OnEnd(newIndex)
	}
}

// abort drops the current session without reporting an end.
func (n *notifier) abort() {
	n.inSession = false
}

func (n *notifier) shouldRotate(candidate float64) bool {
	if n.d.ShouldRotate == nil {
		return true
	}
	return n.d.ShouldRotate(candidate)
}

func (n *notifier) visibilityQuery() func(int) Visibility {
	return n.d.VisibilityFor
}
