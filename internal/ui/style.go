package ui

import (
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Color scheme shared by every command
var (
	PrimaryColor   = "#7C3AED" // Vibrant purple
	SecondaryColor = "#2563EB" // Deep blue

	// Status colors
	SuccessColor = "#10B981" // Emerald green
	ErrorColor   = "#EF4444" // Red
	WarningColor = "#F59E0B" // Amber
	InfoColor    = "#3B82F6" // Blue
	LatestColor  = "#10B981"

	// Text colors
	HeaderColor  = "#F9FAFB" // Near white
	TextColor    = "#E5E7EB" // Light gray
	DimTextColor = "#9CA3AF" // Dimmed gray

	BorderColor        = "#374151" // Dark gray border
	AlternatingRowDark = "#1F2937"
)

// Style definitions
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(HeaderColor)).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(SuccessColor))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ErrorColor))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(WarningColor))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(InfoColor))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(DimTextColor))

	SelectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(HeaderColor))

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(PrimaryColor)).
			Bold(true).
			MarginBottom(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(BorderColor)).
			Padding(0, 1)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(HeaderColor))

	TableRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(TextColor))

	LatestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(LatestColor)).
			Bold(true)
)

// TerminalWidth reads $COLUMNS and falls back to 80.
func TerminalWidth() int {
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		return cols
	}
	return 80
}

// Check if we're in a CI environment
func IsCI() bool {
	return os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" || os.Getenv("TRAVIS") != ""
}

// TruncateWithEllipsis fits s into width terminal cells, ending with "..."
// when it had to cut. Multibyte and wide characters are never split.
func TruncateWithEllipsis(s string, width int) string {
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
