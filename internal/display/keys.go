package display

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

const (
	tileKeys   = "123456789"
	detailKeys = "!@#$%^&*("
	plusKeys   = "qwer"
	minusKeys  = "asdf"
)

// rigAction is an operator action on the simulated hardware.
type rigAction int

const (
	rigNone rigAction = iota
	rigToggleCup
	rigToggleJam
	rigToggleOffline
)

// intent is what a key press means on the current screen.
type intent struct {
	element domain.Element
	hold    bool // deliver as a long press
	rig     rigAction
	quit    bool
}

type keyMap struct {
	Presets  key.Binding
	Custom   key.Binding
	Utility  key.Binding
	Order    key.Binding
	Deselect key.Binding
	Small    key.Binding
	Medium   key.Binding
	Large    key.Binding
	Tile     key.Binding
	Detail   key.Binding
	Plus     key.Binding
	Minus    key.Binding
	Random   key.Binding
	Clean    key.Binding
	Cancel   key.Binding
	Confirm  key.Binding
	Cup      key.Binding
	Jam      key.Binding
	Offline  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Presets:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "presets")),
		Custom:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "custom")),
		Utility:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "utility")),
		Order:    key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter", "order")),
		Deselect: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "deselect")),
		Small:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S/M/L", "size")),
		Medium:   key.NewBinding(key.WithKeys("M")),
		Large:    key.NewBinding(key.WithKeys("L")),
		Tile:     key.NewBinding(key.WithKeys(split(tileKeys)...), key.WithHelp("1-9", "pick")),
		Detail:   key.NewBinding(key.WithKeys(split(detailKeys)...), key.WithHelp("shift+1-9", "details")),
		Plus:     key.NewBinding(key.WithKeys(split(plusKeys)...), key.WithHelp("qwer", "more")),
		Minus:    key.NewBinding(key.WithKeys(split(minusKeys)...), key.WithHelp("asdf", "less")),
		Random:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random")),
		Clean:    key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "clean")),
		Cancel:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "cancel")),
		Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ok")),
		Cup:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "cup")),
		Jam:      key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "jam")),
		Offline:  key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "scale")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func split(s string) []string {
	return strings.Split(s, "")
}

// resolve maps a key to an intent for the given screen.
func (k keyMap) resolve(screen domain.Screen, msg tea.KeyMsg) (intent, bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return intent{quit: true}, true
	case key.Matches(msg, k.Cup):
		return intent{rig: rigToggleCup}, true
	case key.Matches(msg, k.Jam):
		return intent{rig: rigToggleJam}, true
	case key.Matches(msg, k.Offline):
		return intent{rig: rigToggleOffline}, true
	}

	switch screen {
	case domain.ScreenCancellableOperation:
		if key.Matches(msg, k.Cancel) {
			return press(domain.ElementCancel, 0), true
		}
		return intent{}, false
	case domain.ScreenError:
		switch {
		case key.Matches(msg, k.Confirm):
			return press(domain.ElementAcknowledge, 0), true
		case key.Matches(msg, k.Cancel):
			return press(domain.ElementCancel, 0), true
		}
		return intent{}, false
	case domain.ScreenRecipeDetail:
		if key.Matches(msg, k.Cancel, k.Confirm) {
			return press(domain.ElementBack, 0), true
		}
		return intent{}, false
	}

	switch {
	case key.Matches(msg, k.Presets):
		return press(domain.ElementTab, 0), true
	case key.Matches(msg, k.Custom):
		return press(domain.ElementTab, 1), true
	case key.Matches(msg, k.Utility):
		return press(domain.ElementTab, 2), true
	case key.Matches(msg, k.Order):
		return press(domain.ElementOrder, 0), true
	case key.Matches(msg, k.Deselect):
		return press(domain.ElementDeselect, 0), true
	case key.Matches(msg, k.Small):
		return press(domain.ElementSize, int(domain.SizeSmall)), true
	case key.Matches(msg, k.Medium):
		return press(domain.ElementSize, int(domain.SizeMedium)), true
	case key.Matches(msg, k.Large):
		return press(domain.ElementSize, int(domain.SizeLarge)), true
	}

	switch screen {
	case domain.ScreenPresetMenu:
		switch {
		case key.Matches(msg, k.Tile):
			return press(domain.ElementPresetTile, strings.Index(tileKeys, msg.String())), true
		case key.Matches(msg, k.Detail):
			in := press(domain.ElementPresetTile, strings.Index(detailKeys, msg.String()))
			in.hold = true
			return in, true
		}
	case domain.ScreenCustomMenu:
		switch {
		case key.Matches(msg, k.Plus):
			return press(domain.ElementAdjustPlus, strings.Index(plusKeys, msg.String())), true
		case key.Matches(msg, k.Minus):
			return press(domain.ElementAdjustMinus, strings.Index(minusKeys, msg.String())), true
		}
	case domain.ScreenUtilityMenu:
		switch {
		case key.Matches(msg, k.Random):
			return press(domain.ElementRandom, 0), true
		case key.Matches(msg, k.Clean):
			return press(domain.ElementClean, 0), true
		}
	}
	return intent{}, false
}

// help lists the bindings that do something on screen.
func (k keyMap) help(screen domain.Screen) []key.Binding {
	switch screen {
	case domain.ScreenCancellableOperation:
		return []key.Binding{k.Cancel, k.Cup, k.Jam, k.Offline}
	case domain.ScreenError:
		return []key.Binding{k.Confirm, k.Cancel}
	case domain.ScreenRecipeDetail:
		return []key.Binding{k.Cancel}
	}

	common := []key.Binding{k.Presets, k.Custom, k.Utility, k.Order, k.Deselect, k.Small}
	switch screen {
	case domain.ScreenPresetMenu:
		common = append(common, k.Tile, k.Detail)
	case domain.ScreenCustomMenu:
		common = append(common, k.Plus, k.Minus)
	case domain.ScreenUtilityMenu:
		common = append(common, k.Random, k.Clean)
	}
	return append(common, k.Cup, k.Quit)
}

func press(kind domain.ElementKind, index int) intent {
	return intent{element: domain.Element{Kind: kind, Index: index}}
}
