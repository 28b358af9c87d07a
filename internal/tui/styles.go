package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	HeadingStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	MutedStyle    = helpStyle
)

// SeverityBadge renders a severity label colored by level.
func SeverityBadge(severity string) string {
	label := strings.ToUpper(severity)
	switch label {
	case "HIGH":
		return highStyle.Render(label)
	case "MEDIUM":
		return mediumStyle.Render(label)
	case "LOW":
		return lowStyle.Render(label)
	default:
		return label
	}
}
