package display

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

// Compile-time interface check.
var _ domain.InputSource = (*Keypad)(nil)

// DefaultHoldFor is how long a key tap reads as a held touch. It spans
// at least two poll intervals of the dispatch loop.
const DefaultHoldFor = 250 * time.Millisecond

// KeypadOption configures the keypad.
type KeypadOption func(*Keypad)

// WithHoldFor sets how long a tap stays pressed.
func WithHoldFor(d time.Duration) KeypadOption {
	return func(k *Keypad) {
		k.holdFor = d
	}
}

// WithKeypadClock sets the clock used to expire taps.
func WithKeypadClock(clk clock.PassiveClock) KeypadOption {
	return func(k *Keypad) {
		k.clock = clk
	}
}

// Keypad turns key events into touch samples. Terminals report presses
// but no releases, so a tap reads as pressed for a short window, and a
// long press is latched for an exact number of samples.
type Keypad struct {
	clock   clock.PassiveClock
	holdFor time.Duration
	hold    int

	mu      sync.Mutex
	held    domain.Element
	until   time.Time
	latched int
	gap     bool // report one release before the next press
}

// NewKeypad creates a keypad whose long presses satisfy a detector with
// the given threshold.
func NewKeypad(longPressThreshold int, opts ...KeypadOption) *Keypad {
	k := &Keypad{
		clock:   clock.RealClock{},
		holdFor: DefaultHoldFor,
		hold:    max(1, longPressThreshold) + 1,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Tap presses el for the hold window.
func (k *Keypad) Tap(el domain.Element) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.gap = k.pressed()
	k.held = el
	k.until = k.clock.Now().Add(k.holdFor)
	k.latched = 0
}

// LongPress holds el for exactly enough samples to fire a long press.
func (k *Keypad) LongPress(el domain.Element) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.gap = k.pressed()
	k.held = el
	k.until = time.Time{}
	k.latched = k.hold
}

// Poll returns the current sample.
func (k *Keypad) Poll() domain.Touch {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.gap {
		k.gap = false
		return domain.Released
	}
	if k.latched > 0 {
		k.latched--
		return domain.Touch{Element: k.held, Pressed: true}
	}
	if k.clock.Now().Before(k.until) {
		return domain.Touch{Element: k.held, Pressed: true}
	}
	return domain.Released
}

// pressed reports whether a key is still held. Callers hold mu.
func (k *Keypad) pressed() bool {
	return k.latched > 0 || k.clock.Now().Before(k.until)
}
