package formatter

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/gtdsync/internal/model"
)

// Theme defines the color scheme for terminal output
type Theme struct {
	Foreground lipgloss.Color
	Subtle     lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Info      lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	PriorityLow    lipgloss.Color
	PriorityMedium lipgloss.Color
	PriorityHigh   lipgloss.Color

	StatusInbox   lipgloss.Color
	StatusNext    lipgloss.Color
	StatusWaiting lipgloss.Color
	StatusSomeday lipgloss.Color
}

// Nord is the Arctic, north-bluish palette from https://www.nordtheme.com/
var Nord = Theme{
	Foreground: lipgloss.Color("#ECEFF4"),
	Subtle:     lipgloss.Color("#4C566A"),

	Primary:   lipgloss.Color("#88C0D0"),
	Secondary: lipgloss.Color("#81A1C1"),
	Info:      lipgloss.Color("#5E81AC"),

	Success: lipgloss.Color("#A3BE8C"),
	Warning: lipgloss.Color("#EBCB8B"),
	Error:   lipgloss.Color("#BF616A"),

	PriorityLow:    lipgloss.Color("#A3BE8C"),
	PriorityMedium: lipgloss.Color("#EBCB8B"),
	PriorityHigh:   lipgloss.Color("#D08770"),

	StatusInbox:   lipgloss.Color("#EBCB8B"),
	StatusNext:    lipgloss.Color("#88C0D0"),
	StatusWaiting: lipgloss.Color("#B48EAD"),
	StatusSomeday: lipgloss.Color("#4C566A"),
}

// Styles holds pre-computed lipgloss styles. The zero Styles renders text
// unchanged, which is what non-terminal output uses.
type Styles struct {
	Header  lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
	Title   lipgloss.Style
	Done    lipgloss.Style
	Overdue lipgloss.Style
	Due     lipgloss.Style
	Tag     lipgloss.Style
	Project lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style

	Priority map[model.Priority]lipgloss.Style
	Status   map[model.Status]lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return Styles{
		Header:  fg(t.Primary).Bold(true),
		Label:   fg(t.Secondary),
		Dim:     fg(t.Subtle),
		Title:   fg(t.Foreground).Bold(true),
		Done:    fg(t.Subtle).Strikethrough(true),
		Overdue: fg(t.Error).Bold(true),
		Due:     fg(t.Warning),
		Tag:     fg(t.Info),
		Project: fg(t.Secondary).Italic(true),
		Success: fg(t.Success),
		Failure: fg(t.Error),

		Priority: map[model.Priority]lipgloss.Style{
			model.PriorityLow:    fg(t.PriorityLow),
			model.PriorityMedium: fg(t.PriorityMedium),
			model.PriorityHigh:   fg(t.PriorityHigh).Bold(true),
		},
		Status: map[model.Status]lipgloss.Style{
			model.StatusInbox:   fg(t.StatusInbox),
			model.StatusNext:    fg(t.StatusNext),
			model.StatusWaiting: fg(t.StatusWaiting),
			model.StatusSomeday: fg(t.StatusSomeday),
		},
	}
}
