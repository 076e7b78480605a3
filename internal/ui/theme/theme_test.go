package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/quizforge/internal/quiz"
)

func TestProgressBarSegments(t *testing.T) {
	tests := []struct {
		name        string
		bar         ProgressBar
		filled, gap int
	}{
		{"half", ProgressBar{Percent: 0.5, Width: 20}, 10, 10},
		{"label and percent", ProgressBar{Label: "XP", Percent: 0.5, ShowPercent: true, Width: 30}, 10, 10},
		{"overflow clamps", ProgressBar{Percent: 1.7, Width: 10}, 10, 0},
		{"negative clamps", ProgressBar{Percent: -1, Width: 10}, 0, 10},
		{"minimum width", ProgressBar{Percent: 1, Width: 1}, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filled, empty := tt.bar.Segments()
			assert.Equal(t, tt.filled, filled)
			assert.Equal(t, tt.gap, empty)
		})
	}
}

func TestXPBar(t *testing.T) {
	bar := XPBar(250, 100, 40)
	assert.Equal(t, "XP 50/100", bar.Label)
	assert.InDelta(t, 0.5, bar.Percent, 1e-9)
	assert.Contains(t, bar.View(), "XP 50/100")

	assert.Zero(t, XPBar(250, 0, 40).Percent)
}

func TestTierLabel(t *testing.T) {
	assert.Contains(t, TierLabel(quiz.TierMaster), "Master")
	assert.Contains(t, TierLabel(quiz.TierBeginner), "🌱")
}

func TestGradeColor(t *testing.T) {
	assert.Equal(t, Correct.Render("A+"), GradeColor("A+").Render("A+"))
	assert.Equal(t, Incorrect.Render("D"), GradeColor("D").Render("D"))
}
