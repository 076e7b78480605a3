package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/quiz"
	"github.com/abhisek/quizforge/internal/session"
	"github.com/abhisek/quizforge/internal/ui/theme"
)

var errQuit = errors.New("quit")

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a quiz in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		req := session.StartRequest{}
		req.UserID, _ = cmd.Flags().GetString("user")
		req.Subject, _ = cmd.Flags().GetString("subject")
		req.Topic, _ = cmd.Flags().GetString("topic")
		req.Tier, _ = cmd.Flags().GetString("difficulty")
		req.Count, _ = cmd.Flags().GetInt("count")
		req.Source, _ = cmd.Flags().GetString("source")

		return playQuiz(ctx, a.Service, req, os.Stdin, os.Stdout, time.Now)
	},
}

func init() {
	playCmd.Flags().String("user", defaultUser(), "Player id")
	playCmd.Flags().String("subject", "react", "Subject to quiz on")
	playCmd.Flags().String("topic", "", "Optional topic within the subject")
	playCmd.Flags().String("difficulty", string(quiz.TierBeginner), "Difficulty tier")
	playCmd.Flags().Int("count", 0, "Number of questions (0 uses the tier default)")
	playCmd.Flags().String("source", "", "Question source: bank, llm or fallback")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "player"
}

// playQuiz runs one session over a line-oriented terminal. Entering q
// abandons the session.
func playQuiz(ctx context.Context, svc *session.Service, req session.StartRequest, in io.Reader, out io.Writer, now func() time.Time) error {
	sess, err := svc.Start(ctx, req)
	if err != nil {
		return err
	}

	lipgloss.Fprintln(out, theme.Title.Render(fmt.Sprintf("%s quiz", sess.Subject))+"  "+theme.TierLabel(sess.Tier))
	hint := fmt.Sprintf("%d questions from %s", len(sess.Questions), sess.Source)
	if sess.TimeLimit > 0 {
		hint += fmt.Sprintf(", %s on the clock", sess.TimeLimit)
	}
	lipgloss.Fprintln(out, theme.Hint.Render(hint+". Answer a-d, s to skip, q to quit."))

	started := now()
	scanner := bufio.NewScanner(in)
	for i, q := range sess.Questions {
		fmt.Fprintln(out)
		lipgloss.Fprintln(out, renderQuestion(i, len(sess.Questions), q))

		choice, err := promptChoice(scanner, out, len(q.Options))
		if errors.Is(err, errQuit) {
			if err := svc.Abandon(ctx, sess.ID); err != nil {
				return err
			}
			lipgloss.Fprintln(out, theme.Hint.Render("Session abandoned."))
			return nil
		}
		if err != nil {
			return err
		}
		if choice == quiz.Unanswered {
			continue
		}
		if _, err := svc.Answer(ctx, sess.ID, i, choice); err != nil {
			return err
		}
	}

	sum, err := svc.Submit(ctx, session.SubmitRequest{SessionID: sess.ID, TimeSpent: now().Sub(started)})
	if err != nil {
		return err
	}
	lipgloss.Fprintln(out, renderSummary(sum, svc.Rules().Tracker.LevelDivisor))
	return nil
}

// promptChoice reads lines until one parses. io.EOF counts as quitting.
func promptChoice(scanner *bufio.Scanner, out io.Writer, options int) (int, error) {
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, errQuit
		}
		choice, err := parseChoice(scanner.Text(), options)
		if err == nil || errors.Is(err, errQuit) {
			return choice, err
		}
		lipgloss.Fprintln(out, theme.Incorrect.Render(err.Error()))
	}
}

// parseChoice accepts a letter or a 1-based number. s skips the question.
func parseChoice(line string, options int) (int, error) {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "q", "quit":
		return 0, errQuit
	case "s", "skip":
		return quiz.Unanswered, nil
	case "":
		return 0, fmt.Errorf("pick an option")
	}

	idx := -1
	if len(line) == 1 && line[0] >= 'a' && line[0] <= 'z' {
		idx = int(line[0] - 'a')
	} else if n, err := strconv.Atoi(line); err == nil {
		idx = n - 1
	}
	if idx < 0 || idx >= options {
		return 0, fmt.Errorf("%q is not an option", line)
	}
	return idx, nil
}

func renderQuestion(i, total int, q quiz.QuestionRecord) string {
	var b strings.Builder
	b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Question %d/%d", i+1, total)))
	b.WriteString("  " + theme.TierLabel(q.Tier) + "\n")
	b.WriteString(theme.Body.Bold(true).Render(q.Prompt) + "\n")
	for j, opt := range q.Options {
		b.WriteString(fmt.Sprintf("  %s %s\n", theme.Selected.Render(string(rune('a'+j))+")"), theme.Body.Render(opt)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSummary(sum *session.Summary, divisor int) string {
	res := sum.Result
	var b strings.Builder

	b.WriteString(theme.Title.Render("Results") + "\n")
	b.WriteString(row("Score", fmt.Sprintf("%d/%d (%d%%)", res.CorrectCount, res.TotalCount, res.AccuracyPercent)))
	b.WriteString(row("Grade", theme.GradeColor(res.Grade).Render(res.Grade)))
	b.WriteString(row("Points", fmt.Sprintf("%d + %d time bonus = %d", res.PointsAwarded, res.TimeBonus, res.FinalScore)))
	b.WriteString(row("XP earned", fmt.Sprintf("+%d", sum.XPEarned)))
	b.WriteString(row("Level", strconv.Itoa(sum.Stats.Level)))
	b.WriteString(row("Streak", strconv.Itoa(sum.Stats.QuizStreak)))
	b.WriteString(theme.XPBar(sum.Stats.TotalXP, divisor, 48).View() + "\n")

	if sum.LevelUp {
		b.WriteString(theme.Badge.Render(fmt.Sprintf("Level up! You reached level %d.", sum.Stats.Level)) + "\n")
	}
	if sum.StreakBroken {
		b.WriteString(theme.Hint.Render("Streak reset.") + "\n")
	}
	for _, ach := range sum.Achievements {
		b.WriteString(theme.Badge.Render(fmt.Sprintf("%s %s", ach.Icon(), ach.DisplayName())) + "  " + theme.Hint.Render(ach.Description()) + "\n")
	}

	if sum.Session != nil {
		b.WriteString("\n")
		for i, q := range sum.Session.Questions {
			mark := theme.Incorrect.Render("✗")
			if i < len(res.Answers) && res.Answers[i].Correct {
				mark = theme.Correct.Render("✓")
			}
			b.WriteString(fmt.Sprintf("%s %s\n", mark, q.Prompt))
			if q.Explanation != "" {
				b.WriteString("  " + theme.Hint.Render(q.Explanation) + "\n")
			}
		}
	}

	for _, st := range sum.Tiers {
		if st.Unlocked {
			continue
		}
		b.WriteString(theme.Locked.Render(st.Tier.DisplayName()) + "  " + theme.Hint.Render(st.Reason) + "\n")
	}
	for _, rec := range sum.Recommendations {
		b.WriteString("• " + rec + "\n")
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func row(label, value string) string {
	return theme.Label.Render(label) + value + "\n"
}
