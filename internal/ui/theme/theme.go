// Package theme holds the terminal palette and render helpers used by the CLI.
package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizforge/internal/quiz"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(14)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)

	Highlight = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Accent).
			Padding(0, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Locked = lipgloss.NewStyle().
		Foreground(TextDim).
		Strikethrough(true)

	Badge = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// TierColor returns the accent used for a tier.
func TierColor(t quiz.Tier) lipgloss.Style {
	switch t {
	case quiz.TierBeginner:
		return lipgloss.NewStyle().Foreground(Success)
	case quiz.TierIntermediate:
		return lipgloss.NewStyle().Foreground(Secondary)
	case quiz.TierAdvanced:
		return lipgloss.NewStyle().Foreground(Primary)
	case quiz.TierExpert:
		return lipgloss.NewStyle().Foreground(Accent)
	case quiz.TierMaster:
		return lipgloss.NewStyle().Foreground(Warning).Bold(true)
	default:
		return Body
	}
}

// GradeColor returns the style for a letter grade.
func GradeColor(grade string) lipgloss.Style {
	switch grade {
	case "A+", "A":
		return Correct
	case "B", "C":
		return lipgloss.NewStyle().Foreground(Warning).Bold(true)
	default:
		return Incorrect
	}
}

// TierLabel renders a tier with its icon in its color.
func TierLabel(t quiz.Tier) string {
	return TierColor(t).Render(t.Icon() + " " + t.DisplayName())
}
