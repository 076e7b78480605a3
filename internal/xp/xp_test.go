package xp

import (
	"testing"

	"github.com/abhisek/quizforge/internal/quiz"
)

func TestCalculate(t *testing.T) {
	c := NewCalculator()
	tests := []struct {
		name      string
		correct   int
		total     int
		tier      quiz.Tier
		timeBonus float64
		want      int
	}{
		{"intermediate half", 5, 10, quiz.TierIntermediate, 0, 75},
		{"beginner perfect", 10, 10, quiz.TierBeginner, 0, 100},
		{"master with bonus", 4, 10, quiz.TierMaster, 12.4, 132},
		{"negative correct clamps", -3, 10, quiz.TierAdvanced, 0, 0},
		{"negative bonus ignored", 1, 1, quiz.TierBeginner, -50, 10},
		{"zero total", 0, 0, quiz.TierBeginner, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Calculate(tt.correct, tt.total, tt.tier, tt.timeBonus)
			if got != tt.want {
				t.Errorf("Calculate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalculate_CoreTierSet(t *testing.T) {
	c := Calculator{Tiers: quiz.CoreTiers, Formula: FormulaAdditive}
	if got := c.Calculate(4, 10, quiz.TierExpert, 0); got != 40 {
		t.Errorf("expert outside core set should use 1.0, got %d", got)
	}
	if got := c.Calculate(4, 10, quiz.TierAdvanced, 0); got != 80 {
		t.Errorf("advanced = %d, want 80", got)
	}
}

func TestCalculate_MonotonicInCorrect(t *testing.T) {
	c := NewCalculator()
	for _, tier := range quiz.AllTiers() {
		prev := -1
		for correct := 0; correct <= 20; correct++ {
			got := c.Calculate(correct, 20, tier, 3)
			if got < prev {
				t.Fatalf("%s: xp decreased at correct=%d (%d < %d)", tier, correct, got, prev)
			}
			prev = got
		}
	}
}

func TestWeighted(t *testing.T) {
	c := NewCalculator()

	// 10 * 8 * 1.5 * (0.5 + 1.5*0.8) * 1.2 = 244.8
	if got := c.Weighted(8, 10, quiz.TierIntermediate, 100); got != 245 {
		t.Errorf("Weighted() = %d, want 245", got)
	}
	// 10 * 5 * 1.0 * 1.25 * 1.0 = 62.5 -> 63
	if got := c.Weighted(5, 10, quiz.TierBeginner, 500); got != 63 {
		t.Errorf("Weighted() = %d, want 63", got)
	}
	if got, slow := c.Weighted(8, 10, quiz.TierIntermediate, 0), c.Weighted(8, 10, quiz.TierIntermediate, 300); got != slow {
		t.Errorf("Weighted() with unknown timing = %d, want %d", got, slow)
	}
	if got := c.Weighted(3, 0, quiz.TierBeginner, 10); got != 0 {
		t.Errorf("zero total should award 0, got %d", got)
	}
}

func TestAward_UsesFormula(t *testing.T) {
	res := quiz.SessionResult{CorrectCount: 8, TotalCount: 10, TimeBonus: 5, TimeSpentSeconds: 100}

	additive := NewCalculator()
	if got := additive.Award(res, quiz.TierIntermediate); got != 125 {
		t.Errorf("additive Award() = %d, want 125", got)
	}

	weighted := Calculator{Tiers: quiz.ExtendedTiers, Formula: FormulaWeighted}
	if got := weighted.Award(res, quiz.TierIntermediate); got != 245 {
		t.Errorf("weighted Award() = %d, want 245", got)
	}
}

func TestTimeMultiplier(t *testing.T) {
	tests := []struct {
		secs int
		want float64
	}{
		{-5, 1.0}, {0, 1.0}, {1, 1.2}, {120, 1.2}, {121, 1.1}, {180, 1.1}, {181, 1.05}, {240, 1.05}, {241, 1.0},
	}
	for _, tt := range tests {
		if got := TimeMultiplier(tt.secs); got != tt.want {
			t.Errorf("TimeMultiplier(%d) = %v, want %v", tt.secs, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		xp, divisor, want int
	}{
		{0, 100, 1},
		{99, 100, 1},
		{100, 100, 2},
		{450, 100, 5},
		{499, 500, 1},
		{500, 500, 2},
		{250, 0, 3},
		{-20, 100, 1},
	}
	for _, tt := range tests {
		if got := Level(tt.xp, tt.divisor); got != tt.want {
			t.Errorf("Level(%d, %d) = %d, want %d", tt.xp, tt.divisor, got, tt.want)
		}
	}
	if got := ToNextLevel(130, 100); got != 70 {
		t.Errorf("ToNextLevel(130) = %d, want 70", got)
	}
}
