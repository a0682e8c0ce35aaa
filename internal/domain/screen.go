package domain

// Screen identifies what the navigator is showing.
type Screen int

const (
	ScreenPresetMenu Screen = iota
	ScreenCustomMenu
	ScreenUtilityMenu
	ScreenCancellableOperation
	ScreenError
	ScreenRecipeDetail
)

// String returns a human-readable screen name.
func (s Screen) String() string {
	switch s {
	case ScreenPresetMenu:
		return "preset_menu"
	case ScreenCustomMenu:
		return "custom_menu"
	case ScreenUtilityMenu:
		return "utility_menu"
	case ScreenCancellableOperation:
		return "cancellable_operation"
	case ScreenError:
		return "error"
	case ScreenRecipeDetail:
		return "recipe_detail"
	default:
		return "unknown"
	}
}

// IsOverlay reports whether the screen can only be left through an
// explicit cancel, back or acknowledge control.
func (s Screen) IsOverlay() bool {
	switch s {
	case ScreenCancellableOperation, ScreenError, ScreenRecipeDetail:
		return true
	default:
		return false
	}
}

// ElementKind classifies a logical touch target.
type ElementKind int

const (
	ElementNone        ElementKind = iota
	ElementTab                     // side panel: Index 0..2 selects preset/custom/utility
	ElementOrder                   // side panel "Order" button
	ElementPresetTile              // Index = catalog slot
	ElementAdjustPlus              // Index = ingredient
	ElementAdjustMinus             // Index = ingredient
	ElementSize                    // Index = Size
	ElementDeselect
	ElementRandom
	ElementClean
	ElementCancel
	ElementAcknowledge
	ElementBack
)

// String returns a human-readable element kind.
func (k ElementKind) String() string {
	switch k {
	case ElementTab:
		return "tab"
	case ElementOrder:
		return "order"
	case ElementPresetTile:
		return "preset_tile"
	case ElementAdjustPlus:
		return "adjust_plus"
	case ElementAdjustMinus:
		return "adjust_minus"
	case ElementSize:
		return "size"
	case ElementDeselect:
		return "deselect"
	case ElementRandom:
		return "random"
	case ElementClean:
		return "clean"
	case ElementCancel:
		return "cancel"
	case ElementAcknowledge:
		return "acknowledge"
	case ElementBack:
		return "back"
	default:
		return "none"
	}
}

// Element is a resolved logical hit. Pixel mapping happens in the input
// collaborator.
type Element struct {
	Kind  ElementKind
	Index int
}

// Touch is one input sample: either a pressed element or a release.
type Touch struct {
	Element Element
	Pressed bool
}

// Released is the "no touch" sample.
var Released = Touch{}

// Press builds a pressed sample.
func Press(kind ElementKind, index int) Touch {
	return Touch{Element: Element{Kind: kind, Index: index}, Pressed: true}
}

// View is an immutable snapshot of everything a renderer needs. It is
// published by the engine after every dispatch step.
type View struct {
	Screen       Screen
	Overlay      string
	Catalog      []Recipe
	Stock        Stock
	Available    [CatalogCapacity]bool
	Custom       Recipe
	Candidate    Candidate
	SelectedSlot int // -1 when no preset is selected
	DetailSlot   int
	Top          []Ranked
	Stats        Stats
}
