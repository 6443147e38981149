package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Confirm asks a yes/no question. It returns false without prompting when
// the answer can't be read from a terminal.
func Confirm(title, description string) (bool, error) {
	if IsCI() {
		return false, nil
	}

	baseStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(InfoColor))
	theme := huh.ThemeBase()
	theme.Focused.Title = baseStyle.Bold(true)
	theme.Focused.Description = DimStyle
	theme.Focused.FocusedButton = SelectStyle.Background(lipgloss.Color(PrimaryColor)).Padding(0, 1)

	var confirmed bool
	field := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(field)).WithTheme(theme).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("error during confirmation: %w", err)
	}
	return confirmed, nil
}
