package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/hardware"
)

var tabNames = [...]string{"Presets", "Custom", "Utility"}

// Frame is everything drawn in one refresh.
type Frame struct {
	View  domain.View
	Rig   hardware.Status
	Width int
}

// Render draws the whole screen.
func Render(f Frame, keys keyMap) string {
	v := f.View
	width := f.Width
	if width <= 0 {
		width = 80
	}

	var body string
	switch v.Screen {
	case domain.ScreenPresetMenu:
		body = renderPresets(v)
	case domain.ScreenCustomMenu:
		body = renderCustom(v)
	case domain.ScreenUtilityMenu:
		body = renderUtility(v)
	case domain.ScreenCancellableOperation:
		body = overlayStyle.Render(v.Overlay + "\n\n" + secondaryStyle.Render(pourLine(f.Rig)))
	case domain.ScreenError:
		body = alertStyle.Render(v.Overlay + "\n\n" + secondaryStyle.Render("[enter] OK"))
	case domain.ScreenRecipeDetail:
		body = renderDetail(v)
	}

	sections := []string{
		renderTabs(v.Screen),
		lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", renderSide(v)),
		renderStock(v.Stock),
		barBg.Width(width).Render(" " + rigLine(f.Rig)),
		renderHelp(keys.help(v.Screen)),
	}
	return strings.Join(sections, "\n")
}

func renderTabs(screen domain.Screen) string {
	active := -1
	switch screen {
	case domain.ScreenPresetMenu:
		active = 0
	case domain.ScreenCustomMenu:
		active = 1
	case domain.ScreenUtilityMenu:
		active = 2
	}
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if i == active {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderPresets(v domain.View) string {
	var rows []string
	for r := 0; r < 3; r++ {
		var cells []string
		for c := 0; c < 3; c++ {
			slot := r*3 + c
			cells = append(cells, renderTile(v, slot))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderTile(v domain.View, slot int) string {
	label := fmt.Sprintf("%d ", slot+1)
	if slot >= len(v.Catalog) || v.Catalog[slot].Name == "" {
		return emptyTileStyle.Render(label + "-")
	}
	rec := v.Catalog[slot]
	text := label + rec.Name
	switch {
	case slot == v.SelectedSlot:
		return selectedTileStyle.Render(text)
	case !v.Available[slot]:
		return unavailableTileStyle.Render(text)
	default:
		return tileStyle.Render(text)
	}
}

func renderCustom(v domain.View) string {
	lines := []string{primaryStyle.Render("Build your own")}
	for i, ing := range v.Stock {
		name := ingredientName(ing, i)
		lines = append(lines, fmt.Sprintf("%c/%c  %-12s %s  %s",
			plusKeys[i], minusKeys[i],
			name,
			accentStyle.Render(fmt.Sprintf("%3d ml", v.Custom.Amounts[i])),
			secondaryStyle.Render(fmt.Sprintf("(%.0f ml left)", ing.Remaining)),
		))
	}
	lines = append(lines, secondaryStyle.Render(fmt.Sprintf("total %d ml", v.Custom.Total())))
	return strings.Join(lines, "\n")
}

func renderUtility(v domain.View) string {
	lines := []string{
		primaryStyle.Render("[r] Random cocktail   [k] Clean lines"),
		"",
		primaryStyle.Render("Most ordered"),
	}
	if len(v.Top) == 0 {
		lines = append(lines, secondaryStyle.Render("  no orders yet"))
	}
	for i, r := range v.Top {
		lines = append(lines, fmt.Sprintf("  %d. %-18s %s", i+1, r.Name, accentStyle.Render(fmt.Sprint(r.Count))))
	}
	s := v.Stats
	lines = append(lines, "",
		secondaryStyle.Render(fmt.Sprintf("completed %d  cancelled %d  timed out %d",
			s.OrdersCompleted, s.OrdersCancelled, s.OrdersTimedOut)),
		secondaryStyle.Render(fmt.Sprintf("preset %d  custom %d  random %d",
			s.PresetOrders, s.CustomOrders, s.RandomOrders)),
	)
	return strings.Join(lines, "\n")
}

func renderDetail(v domain.View) string {
	if v.DetailSlot < 0 || v.DetailSlot >= len(v.Catalog) {
		return overlayStyle.Render(secondaryStyle.Render("nothing to show"))
	}
	rec := v.Catalog[v.DetailSlot]
	lines := []string{accentStyle.Render(rec.Name), ""}
	for i, amt := range rec.Amounts {
		if amt == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-12s %3d ml", ingredientName(v.Stock[i], i), amt))
	}
	lines = append(lines, "", secondaryStyle.Render(fmt.Sprintf("%d ml total", rec.Total())))
	return overlayStyle.Render(strings.Join(lines, "\n"))
}

func renderSide(v domain.View) string {
	var lines []string
	if v.Candidate.Selected() {
		lines = append(lines, accentStyle.Render(v.Candidate.Recipe.Name))
	} else {
		lines = append(lines, secondaryStyle.Render("Nothing selected"))
	}

	var sizes []string
	for _, s := range []domain.Size{domain.SizeSmall, domain.SizeMedium, domain.SizeLarge} {
		if s == v.Candidate.Size {
			sizes = append(sizes, primaryStyle.Bold(true).Render(strings.ToUpper(s.String()[:1])))
		} else {
			sizes = append(sizes, secondaryStyle.Render(s.String()[:1]))
		}
	}
	lines = append(lines, "size "+strings.Join(sizes, " "), "", primaryStyle.Render("[enter] Order"))
	return strings.Join(lines, "\n")
}

func renderStock(stock domain.Stock) string {
	var parts []string
	for i, ing := range stock {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(colorOr(ing.Color))).Render("■")
		level := fmt.Sprintf("%.0f ml", ing.Remaining)
		if ing.Remaining <= 0 {
			level = urgentStyle.Render("empty")
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", swatch, ingredientName(ing, i), level))
	}
	return strings.Join(parts, "   ")
}

func renderHelp(bindings []key.Binding) string {
	var parts []string
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, primaryStyle.Render(h.Key)+" "+secondaryStyle.Render(h.Desc))
	}
	return strings.Join(parts, secondaryStyle.Render(" • "))
}

func pourLine(s hardware.Status) string {
	if !s.Cup {
		return "scale: empty"
	}
	return fmt.Sprintf("in cup: %.0f ml", s.Liquid)
}

func rigLine(s hardware.Status) string {
	cup := "no cup"
	if s.Cup {
		cup = fmt.Sprintf("cup %.0f ml", s.Liquid)
	}
	pumps := make([]byte, 0, len(s.Pumping))
	for i, on := range s.Pumping {
		switch {
		case s.Jammed[i]:
			pumps = append(pumps, 'x')
		case on:
			pumps = append(pumps, '*')
		default:
			pumps = append(pumps, '.')
		}
	}
	scale := "scale online"
	if s.Offline {
		scale = "scale offline"
	}
	return fmt.Sprintf("%s | pumps [%s] | %s", cup, pumps, scale)
}

func ingredientName(ing domain.Ingredient, i int) string {
	if ing.Name == "" {
		return fmt.Sprintf("Bottle %d", i+1)
	}
	return ing.Name
}

func colorOr(c string) string {
	if c == "" {
		return "#a1a1aa"
	}
	return c
}
