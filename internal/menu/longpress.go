package menu

import "github.com/hammamikhairi/ottobar/internal/domain"

// DefaultLongPressThreshold is the number of samples a touch must be held
// beyond before it counts as a long press.
const DefaultLongPressThreshold = 8

// LongPress turns a stream of touch samples into long-press events.
type LongPress struct {
	threshold int
	current   domain.Element
	held      int
	fired     bool
}

// NewLongPress creates a detector. A threshold below 1 is raised to 1.
func NewLongPress(threshold int) *LongPress {
	if threshold < 1 {
		threshold = 1
	}
	return &LongPress{threshold: threshold}
}

// Observe feeds one sample. It reports the held element when the same
// element has been touched for threshold+1 contiguous samples, once per
// contiguous touch. A release or a move to another element restarts the
// count from zero.
func (l *LongPress) Observe(t domain.Touch) (domain.Element, bool) {
	if !t.Pressed || t.Element.Kind == domain.ElementNone {
		l.reset()
		return domain.Element{}, false
	}
	if t.Element != l.current {
		l.reset()
		l.current = t.Element
	}
	l.held++
	if l.fired || l.held <= l.threshold {
		return domain.Element{}, false
	}
	l.fired = true
	return l.current, true
}

func (l *LongPress) reset() {
	l.current = domain.Element{}
	l.held = 0
	l.fired = false
}
