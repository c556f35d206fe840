package render

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

type Styles struct {
	flavor catppuccin.Flavor
	plain  bool
}

// NewStyles returns styles for a catppuccin flavor name. Plain styles render
// text unchanged, for pipes and tests.
func NewStyles(themeName string, plain bool) *Styles {
	return &Styles{flavor: flavorFromName(themeName), plain: plain}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	case "mocha":
		return catppuccin.Mocha
	default:
		return catppuccin.Mocha
	}
}

func (s *Styles) render(style lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return style.Render(text)
}

func (s *Styles) Title(text string) string {
	return s.render(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(s.flavor.Mauve().Hex)), text)
}

func (s *Styles) Header(text string) string {
	return s.render(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(s.flavor.Subtext1().Hex)), text)
}

func (s *Styles) Name(text string) string {
	return s.render(lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Text().Hex)), text)
}

func (s *Styles) Muted(text string) string {
	return s.render(lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Overlay0().Hex)), text)
}

func (s *Styles) Accent(text string) string {
	return s.render(lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Teal().Hex)), text)
}

func (s *Styles) Warn(text string) string {
	return s.render(lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Yellow().Hex)), text)
}

func (s *Styles) Error(text string) string {
	return s.render(lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Red().Hex)).
		Bold(true), text)
}

// Status colors a project status: active green, recent yellow, stale grey.
func (s *Styles) Status(status string) string {
	color := s.flavor.Overlay1()
	switch status {
	case "active":
		color = s.flavor.Green()
	case "recent":
		color = s.flavor.Yellow()
	}
	return s.render(lipgloss.NewStyle().Foreground(lipgloss.Color(color.Hex)), status)
}
