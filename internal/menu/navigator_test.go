package menu

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/logger"
)

func newTestNavigator() *Navigator {
	return NewNavigator(logger.New(logger.LevelOff, nil))
}

func TestNavigatorStartsOnPresetMenu(t *testing.T) {
	n := newTestNavigator()
	if n.Screen() != domain.ScreenPresetMenu {
		t.Fatalf("initial screen = %s", n.Screen())
	}
	if n.DetailSlot() != -1 {
		t.Fatalf("initial detail slot = %d", n.DetailSlot())
	}
}

func TestNavigatorTabs(t *testing.T) {
	n := newTestNavigator()
	var visited []domain.Screen
	for _, tab := range []int{1, 2, 0, 2} {
		if err := n.SelectTab(tab); err != nil {
			t.Fatalf("tab %d: %v", tab, err)
		}
		visited = append(visited, n.Screen())
	}
	want := []domain.Screen{
		domain.ScreenCustomMenu,
		domain.ScreenUtilityMenu,
		domain.ScreenPresetMenu,
		domain.ScreenUtilityMenu,
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Fatalf("screens mismatch (-want +got):\n%s", diff)
	}
	if err := n.SelectTab(3); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("tab 3: expected ErrIllegalTransition, got %v", err)
	}
}

func TestOverlaysExitOnlyThroughDismiss(t *testing.T) {
	tests := []struct {
		name  string
		enter func(*Navigator) error
	}{
		{"operation", func(n *Navigator) error { return n.BeginOperation("Please insert a cup.") }},
		{"error", func(n *Navigator) error { return n.ShowError("Please select a drink first.") }},
		{"detail", func(n *Navigator) error { return n.OpenDetail(4) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNavigator()
			if err := n.SelectTab(1); err != nil {
				t.Fatal(err)
			}
			if tt.name == "detail" {
				// Detail is only reachable from the preset menu.
				if err := tt.enter(n); !errors.Is(err, domain.ErrIllegalTransition) {
					t.Fatalf("detail from custom menu: got %v", err)
				}
				if err := n.SelectTab(0); err != nil {
					t.Fatal(err)
				}
			}
			if err := tt.enter(n); err != nil {
				t.Fatalf("enter: %v", err)
			}
			before := n.Screen()
			if !before.IsOverlay() {
				t.Fatalf("%s is not an overlay", before)
			}

			for tab := 0; tab < 3; tab++ {
				if err := n.SelectTab(tab); !errors.Is(err, domain.ErrIllegalTransition) {
					t.Fatalf("tab %d from %s: got %v", tab, before, err)
				}
			}
			if n.Screen() != before {
				t.Fatalf("illegal transition changed screen to %s", n.Screen())
			}

			if err := n.Dismiss(); err != nil {
				t.Fatalf("dismiss: %v", err)
			}
			if n.Screen() != domain.ScreenPresetMenu || n.Overlay() != "" || n.DetailSlot() != -1 {
				t.Fatalf("after dismiss: screen=%s overlay=%q detail=%d", n.Screen(), n.Overlay(), n.DetailSlot())
			}
		})
	}
}

func TestOperationPromptCanChangeAndEndInAlert(t *testing.T) {
	n := newTestNavigator()
	if err := n.BeginOperation("Please insert a cup."); err != nil {
		t.Fatal(err)
	}
	if err := n.BeginOperation("Pouring Martini..."); err != nil {
		t.Fatalf("prompt update: %v", err)
	}
	if !n.InOperation() || n.Overlay() != "Pouring Martini..." {
		t.Fatalf("unexpected state %s %q", n.Screen(), n.Overlay())
	}
	if err := n.ShowError("Dispensing timed out."); err != nil {
		t.Fatalf("alert from operation: %v", err)
	}
	if err := n.BeginOperation("again"); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("operation from alert: got %v", err)
	}
}

func TestDismissOnMenuIsIllegal(t *testing.T) {
	n := newTestNavigator()
	if err := n.Dismiss(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}
