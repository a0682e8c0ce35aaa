// Package menu implements the screen state machine and the long-press
// detector that feed the dispatch loop.
package menu

import (
	"fmt"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

// event is an input to the transition table.
type event int

const (
	evTab event = iota
	evBeginOperation
	evShowError
	evDismiss
	evOpenDetail
)

func (e event) String() string {
	switch e {
	case evTab:
		return "tab"
	case evBeginOperation:
		return "begin_operation"
	case evShowError:
		return "show_error"
	case evDismiss:
		return "dismiss"
	case evOpenDetail:
		return "open_detail"
	default:
		return "unknown"
	}
}

// transitions lists, per screen, the events it accepts. Anything missing
// is illegal. Tab targets are resolved separately since they carry the
// destination screen.
var transitions = map[domain.Screen]map[event]bool{
	domain.ScreenPresetMenu: {
		evTab: true, evBeginOperation: true, evShowError: true, evOpenDetail: true,
	},
	domain.ScreenCustomMenu: {
		evTab: true, evBeginOperation: true, evShowError: true,
	},
	domain.ScreenUtilityMenu: {
		evTab: true, evBeginOperation: true, evShowError: true,
	},
	domain.ScreenCancellableOperation: {
		// The dispensing controller replaces the prompt between the cup wait
		// and the pour, and a stall ends in an alert.
		evBeginOperation: true, evShowError: true, evDismiss: true,
	},
	domain.ScreenError:        {evDismiss: true},
	domain.ScreenRecipeDetail: {evDismiss: true},
}

// tabScreens maps side panel indices to menu screens.
var tabScreens = [...]domain.Screen{
	domain.ScreenPresetMenu,
	domain.ScreenCustomMenu,
	domain.ScreenUtilityMenu,
}

// Navigator tracks the current screen and overlay text.
type Navigator struct {
	screen  domain.Screen
	overlay string
	detail  int
	log     *logger.Logger
}

// NewNavigator returns a navigator on the preset menu.
func NewNavigator(log *logger.Logger) *Navigator {
	return &Navigator{screen: domain.ScreenPresetMenu, detail: -1, log: log}
}

// Screen returns the current screen.
func (n *Navigator) Screen() domain.Screen { return n.screen }

// Overlay returns the prompt or alert text of an overlay screen.
func (n *Navigator) Overlay() string { return n.overlay }

// DetailSlot returns the catalog slot shown on the recipe detail screen,
// or -1.
func (n *Navigator) DetailSlot() int { return n.detail }

// InOperation reports whether a cancellable wait is running.
func (n *Navigator) InOperation() bool {
	return n.screen == domain.ScreenCancellableOperation
}

// SelectTab switches among the three menus from the side panel.
func (n *Navigator) SelectTab(tab int) error {
	if tab < 0 || tab >= len(tabScreens) {
		return fmt.Errorf("tab %d: %w", tab, domain.ErrIllegalTransition)
	}
	return n.apply(evTab, tabScreens[tab], "")
}

// BeginOperation enters the cancellable overlay with the given prompt.
func (n *Navigator) BeginOperation(prompt string) error {
	return n.apply(evBeginOperation, domain.ScreenCancellableOperation, prompt)
}

// ShowError enters the alert overlay. It is legal from every screen but
// the overlays that only exit through an explicit control.
func (n *Navigator) ShowError(message string) error {
	return n.apply(evShowError, domain.ScreenError, message)
}

// Dismiss leaves an overlay through cancel, back or acknowledge. It always
// lands on the preset menu.
func (n *Navigator) Dismiss() error {
	if err := n.apply(evDismiss, domain.ScreenPresetMenu, ""); err != nil {
		return err
	}
	n.detail = -1
	return nil
}

// OpenDetail shows the recipe detail for slot. Only reachable from the
// preset menu.
func (n *Navigator) OpenDetail(slot int) error {
	if err := n.apply(evOpenDetail, domain.ScreenRecipeDetail, ""); err != nil {
		return err
	}
	n.detail = slot
	return nil
}

func (n *Navigator) apply(ev event, to domain.Screen, overlay string) error {
	if !transitions[n.screen][ev] {
		return fmt.Errorf("%s on %s: %w", ev, n.screen, domain.ErrIllegalTransition)
	}
	if n.screen != to {
		n.log.Debug("screen %s -> %s", n.screen, to)
	}
	n.screen = to
	n.overlay = overlay
	return nil
}
