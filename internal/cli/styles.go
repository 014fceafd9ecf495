package cli

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used for terminal output.
type Styles struct {
	Bullet    lipgloss.Style
	Verb      lipgloss.Style
	Command   lipgloss.Style
	ExitOK    lipgloss.Style
	ExitFail  lipgloss.Style
	Timeout   lipgloss.Style
	Error     lipgloss.Style
	Dim       lipgloss.Style
	Separator lipgloss.Style
	Label     lipgloss.Style
}

// DefaultStyles returns styles with colors enabled.
func DefaultStyles() Styles {
	return Styles{
		Bullet:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		Verb:      lipgloss.NewStyle().Bold(true),
		Command:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // yellow
		ExitOK:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		ExitFail:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		Timeout:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Dim:       lipgloss.NewStyle().Faint(true),
		Separator: lipgloss.NewStyle().Faint(true),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")), // cyan
	}
}

// NoColorStyles returns styles with no colors (plain text).
func NoColorStyles() Styles {
	return Styles{
		Bullet:    lipgloss.NewStyle(),
		Verb:      lipgloss.NewStyle(),
		Command:   lipgloss.NewStyle(),
		ExitOK:    lipgloss.NewStyle(),
		ExitFail:  lipgloss.NewStyle(),
		Timeout:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
		Separator: lipgloss.NewStyle(),
		Label:     lipgloss.NewStyle(),
	}
}
