package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Pane          lipgloss.Style
	FocusedPane   lipgloss.Style
	PaneTitle     lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	Highlight     lipgloss.Style
	SelectionBg   lipgloss.Style
	Label         lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.Color("241")),
		FocusedPane: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.Color("99")),
		PaneTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Dim:       lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Highlight:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg:   lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Label:         lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}
