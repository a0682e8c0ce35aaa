// Package display provides the operator terminal using Bubble Tea.
//
// The [UI] redraws the appliance screen from the engine's published view
// on every tick, and turns key presses into touch samples through a
// [Keypad]. Notifications are printed above the rendered area via
// Program.Println / Printf, so concurrent writes never garble the screen.
package display

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/hardware"
)

// DefaultCupWeight is the weight of the cup placed with the cup key.
const DefaultCupWeight = 30.0

const refreshInterval = 100 * time.Millisecond

// ViewSource publishes the latest appliance snapshot.
type ViewSource interface {
	View() domain.View
}

// Rig is the simulated hardware the operator can poke at.
type Rig interface {
	Status() hardware.Status
	PlaceCup(grams float64)
	RemoveCup()
	Jam(i int, jammed bool)
	SetOffline(offline bool)
}

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call [UI.Println] and [UI.Printf] at any time.
type UI struct {
	source  ViewSource
	keypad  *Keypad
	rig     Rig
	program *tea.Program
	readyCh chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. Call Run to start.
func NewUI(source ViewSource, keypad *Keypad, rig Rig) *UI {
	return &UI{
		source:  source,
		keypad:  keypad,
		rig:     rig,
		readyCh: make(chan struct{}),
	}
}

// Println prints a line above the screen. Thread-safe. Falls back to
// fmt.Println when the program is not running.
func (u *UI) Println(a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the screen. Thread-safe.
func (u *UI) Printf(format string, a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Run starts the Bubble Tea event loop. Blocks until the operator quits
// or ctx is cancelled.
func (u *UI) Run(ctx context.Context) error {
	m := newModel(u.source, u.keypad, u.rig)
	m.readyCh = u.readyCh

	u.program = tea.NewProgram(m, tea.WithAltScreen())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			u.program.Quit()
		case <-stop:
		}
	}()

	_, err := u.program.Run()
	u.done.Store(true)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	source  ViewSource
	keypad  *Keypad
	rig     Rig
	keys    keyMap
	readyCh chan struct{}

	view   domain.View
	status hardware.Status
	width  int
}

type tickMsg time.Time

func newModel(source ViewSource, keypad *Keypad, rig Rig) model {
	return model{
		source: source,
		keypad: keypad,
		rig:    rig,
		keys:   defaultKeyMap(),
		view:   source.View(),
		status: rig.Status(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), signalReady(m.readyCh))
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if ch != nil {
			close(ch)
		}
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		in, ok := m.keys.resolve(m.view.Screen, msg)
		if !ok {
			return m, nil
		}
		if in.quit {
			return m, tea.Quit
		}
		m.apply(in)
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(m.title()))
	}
	return m, nil
}

func (m *model) apply(in intent) {
	switch in.rig {
	case rigToggleCup:
		if m.status.Cup {
			m.rig.RemoveCup()
		} else {
			m.rig.PlaceCup(DefaultCupWeight)
		}
		return
	case rigToggleJam:
		jam := !m.status.Jammed[0]
		for i := range m.status.Jammed {
			m.rig.Jam(i, jam)
		}
		return
	case rigToggleOffline:
		m.rig.SetOffline(!m.status.Offline)
		return
	}

	if in.hold {
		m.keypad.LongPress(in.element)
	} else {
		m.keypad.Tap(in.element)
	}
}

func (m *model) refresh() {
	m.view = m.source.View()
	m.status = m.rig.Status()
}

func (m model) title() string {
	if m.view.Screen.IsOverlay() && m.view.Overlay != "" {
		return "Ottobar - " + m.view.Overlay
	}
	return "Ottobar"
}

func (m model) View() string {
	return Render(Frame{View: m.view, Rig: m.status, Width: m.width}, m.keys)
}
