package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// XPBar shows progress through the current level.
func XPBar(totalXP, divisor, width int) ProgressBar {
	if divisor <= 0 {
		return NewProgressBar("XP", 0, true, width)
	}
	into := totalXP % divisor
	return NewProgressBar(fmt.Sprintf("XP %d/%d", into, divisor), float64(into)/float64(divisor), true, width)
}

// Segments returns the filled and empty cell counts for the bar body.
func (p ProgressBar) Segments() (filled, empty int) {
	labelWidth := 0
	if p.Label != "" {
		labelWidth = lipgloss.Width(p.Label) + 2
	}
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // "  100%"
	}

	barWidth := max(p.Width-labelWidth-percentWidth, 4)
	filled = min(max(int(float64(barWidth)*p.Percent), 0), barWidth)
	return filled, barWidth - filled
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(Body.Render(p.Label) + "  ")
	}

	filled, empty := p.Segments()
	b.WriteString(lipgloss.NewStyle().Foreground(Secondary).Render(strings.Repeat("█", filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("░", empty)))

	if p.ShowPercent {
		b.WriteString(Subtitle.Render(fmt.Sprintf("  %d%%", int(p.Percent*100))))
	}
	return b.String()
}
