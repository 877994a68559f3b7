package platform

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorSubtle  = lipgloss.Color("#45475A")
	colorMuted   = lipgloss.Color("#6C7086")
	colorText    = lipgloss.Color("#CDD6F4")

	styleHeader = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(colorPrimary).
			Padding(0, 1).
			Bold(true)

	styleThread = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleMessage = lipgloss.NewStyle().
			Foreground(colorText)

	styleThreadMessage = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(colorSubtle).
				PaddingLeft(1)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)
)
