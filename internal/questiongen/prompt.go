package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizforge/internal/quiz"
)

const systemPrompt = `You write multiple-choice quiz questions for software developers.

Rules:
- Every question has exactly 4 options and exactly one correct option.
- correct_answer is the zero-based index (0-3) of the correct option.
- Explanations say why the correct option is right.
- Questions are challenging but fair for the requested level.
- Avoid ambiguous or trick questions.
- Cover different aspects of the subject and do not repeat a question.`

var tierDescriptions = map[quiz.Tier]string{
	quiz.TierBeginner:     "Basic concepts and fundamental knowledge",
	quiz.TierIntermediate: "Moderate complexity requiring some experience",
	quiz.TierAdvanced:     "Complex topics requiring deep understanding",
	quiz.TierExpert:       "Highly specialized knowledge and critical thinking",
	quiz.TierMaster:       "Expert-level mastery with advanced applications",
}

// buildUserMessage renders the per-request part of the prompt.
func buildUserMessage(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	if req.Topic != "" {
		fmt.Fprintf(&b, "Focus: %s\n", req.Topic)
	}
	fmt.Fprintf(&b, "Level: %s (%s)\n", req.Tier, tierDescriptions[req.Tier])
	fmt.Fprintf(&b, "Number of questions: %d", req.Count)

	return b.String()
}
