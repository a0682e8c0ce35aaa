package display

import "github.com/charmbracelet/lipgloss"

// Soft zinc palette shared by every panel.
var (
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#18181b")).
			Background(lipgloss.Color("#bae6fd")).
			Bold(true).
			Padding(0, 1)

	tileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#52525b")).
			Width(20).
			Padding(0, 1)

	selectedTileStyle = tileStyle.
				BorderForeground(lipgloss.Color("#bbf7d0")).
				Foreground(lipgloss.Color("#bbf7d0")).
				Bold(true)

	unavailableTileStyle = tileStyle.
				Foreground(lipgloss.Color("#52525b")).
				Strikethrough(true)

	emptyTileStyle = tileStyle.
			Foreground(lipgloss.Color("#3f3f46")).
			BorderForeground(lipgloss.Color("#3f3f46"))

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#94a3b8")).
			Foreground(lipgloss.Color("#d4d4d8")).
			Padding(1, 3)

	alertStyle = overlayStyle.
			BorderForeground(lipgloss.Color("#fca5a5")).
			Foreground(lipgloss.Color("#fca5a5"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))
)
