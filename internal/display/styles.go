package display

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles used for each part of a line.
type Styles struct {
	Gutter      lipgloss.Style
	Code        lipgloss.Style
	Result      lipgloss.Style
	Write       lipgloss.Style
	Function    lipgloss.Style
	Placeholder lipgloss.Style
	Selected    lipgloss.Style
}

// NewStyles returns coloured styles, or no-op styles when color is false.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return Styles{
		Gutter:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Code:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Result:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Write:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Function:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		Selected:    lipgloss.NewStyle().Reverse(true),
	}
}
