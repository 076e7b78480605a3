package scoring

import "fmt"

// GradeScale maps an accuracy ratio to a letter grade.
type GradeScale string

const (
	// GradeStandard is A+ >= 90%, A >= 80%, B >= 70%, C >= 60%, else D.
	GradeStandard GradeScale = "standard"

	// GradeLenient is A >= 80%, B >= 60%, C >= 40%, else D. Used by the
	// static question bank flow.
	GradeLenient GradeScale = "lenient"
)

type gradeStep struct {
	min   float64
	grade string
}

var gradeLadders = map[GradeScale][]gradeStep{
	GradeStandard: {{0.9, "A+"}, {0.8, "A"}, {0.7, "B"}, {0.6, "C"}},
	GradeLenient:  {{0.8, "A"}, {0.6, "B"}, {0.4, "C"}},
}

// ParseGradeScale validates a grade scale name.
func ParseGradeScale(s string) (GradeScale, error) {
	switch GradeScale(s) {
	case "", GradeStandard:
		return GradeStandard, nil
	case GradeLenient:
		return GradeLenient, nil
	default:
		return "", fmt.Errorf("unknown grade scale %q", s)
	}
}

// Grade returns the letter grade for ratio, which is correct/total in [0, 1].
// Thresholds are compared against the unrounded ratio.
func (g GradeScale) Grade(ratio float64) string {
	ladder, ok := gradeLadders[g]
	if !ok {
		ladder = gradeLadders[GradeStandard]
	}
	for _, step := range ladder {
		if ratio >= step.min {
			return step.grade
		}
	}
	return "D"
}
