package console

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// Color palette
var (
	colorSuccess = lipgloss.Color("#00D787") // Green
	colorError   = lipgloss.Color("#FF5F87") // Pink
	colorWarning = lipgloss.Color("#FFAF00") // Yellow
	colorInfo    = lipgloss.Color("#5FAFFF") // Blue
	colorMuted   = lipgloss.Color("#888888") // Mid gray
	colorAccent  = lipgloss.Color("#AF87FF") // Purple
)

// Text styles
var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	styleTitle   = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
)

// terminalWidth returns the current terminal width, or a default fallback.
func terminalWidth() int {
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// headerBox returns a bordered box style with responsive width.
func headerBox(borderColor lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(terminalWidth() - 2)
}
