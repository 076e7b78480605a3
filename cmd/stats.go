package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/progress"
	"github.com/abhisek/quizforge/internal/session"
	"github.com/abhisek/quizforge/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a player's progression",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		user, _ := cmd.Flags().GetString("user")
		subject, _ := cmd.Flags().GetString("subject")
		asJSON, _ := cmd.Flags().GetBool("json")

		profile, err := a.Service.Stats(ctx, user)
		if err != nil {
			return err
		}
		var tiers []progress.TierState
		if subject != "" {
			if tiers, err = a.Service.Tiers(ctx, user, subject); err != nil {
				return err
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*session.Profile
				Tiers []progress.TierState `json:"tiers,omitempty"`
			}{profile, tiers})
		}
		lipgloss.Println(renderProfile(profile, a.Service.Rules().Tracker.LevelDivisor))
		if len(tiers) > 0 {
			lipgloss.Println(renderTiers(subject, tiers))
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("user", defaultUser(), "Player id")
	statsCmd.Flags().String("subject", "", "Also show tier unlocks for this subject")
	statsCmd.Flags().Bool("json", false, "Print JSON instead of a card")
}

func renderProfile(p *session.Profile, divisor int) string {
	st := p.Stats
	var b strings.Builder
	b.WriteString(theme.Title.Render(st.UserID) + "\n")
	b.WriteString(row("Level", strconv.Itoa(st.Level)))
	b.WriteString(row("Total XP", fmt.Sprintf("%d (%d to next level)", st.TotalXP, p.XPToNext)))
	b.WriteString(row("Streak", strconv.Itoa(st.QuizStreak)))
	b.WriteString(row("Quizzes", strconv.Itoa(st.TotalQuizzes)))
	b.WriteString(row("Accuracy", fmt.Sprintf("%d%% of %d answers", p.Accuracy, st.TotalQuestions)))
	b.WriteString(theme.XPBar(st.TotalXP, divisor, 48).View() + "\n")

	if len(st.Achievements) > 0 {
		b.WriteString("\n")
		for _, id := range st.Achievements {
			ach := progress.Achievement(id)
			b.WriteString(theme.Badge.Render(ach.Icon()+" "+ach.DisplayName()) + "  " + theme.Hint.Render(ach.Description()) + "\n")
		}
	}

	if len(p.Performance) > 0 {
		b.WriteString("\n" + theme.Subtitle.Render(fmt.Sprintf("%-14s %8s %8s  %s", "Category", "Answers", "Correct", "Level")) + "\n")
		for _, c := range p.Performance {
			b.WriteString(fmt.Sprintf("%-14s %8d %7d%%  %s\n", c.Category, c.TotalAnswers, c.AccuracyPercent, theme.TierLabel(c.Recommended)))
		}
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func renderTiers(subject string, tiers []progress.TierState) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(subject+" tiers") + "\n")
	for _, st := range tiers {
		if st.Unlocked {
			line := theme.TierLabel(st.Tier)
			if st.Progress.QuizCount > 0 {
				line += theme.Hint.Render(fmt.Sprintf("  %d quizzes, %.0f%% accuracy, best %d",
					st.Progress.QuizCount, st.Progress.Accuracy()*100, st.Progress.BestScore))
			}
			b.WriteString(line + "\n")
			continue
		}
		b.WriteString(theme.Locked.Render(st.Tier.Icon()+" "+st.Tier.DisplayName()) + "  " + theme.Hint.Render(st.Reason) + "\n")
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}
