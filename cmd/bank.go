package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/questiongen"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage the static question bank",
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bank categories, or the questions of one category",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		category, _ := cmd.Flags().GetString("category")
		if category == "" {
			cats, err := a.Store.Categories(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-20s  %s\n", "Category", "Questions")
			fmt.Println(strings.Repeat("─", 32))
			for _, c := range cats {
				fmt.Printf("%-20s  %d\n", c.Category, c.Count)
			}
			return nil
		}

		qs, err := a.Store.ListQuestions(ctx, category)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			fmt.Printf("No questions in %q.\n", category)
			return nil
		}
		fmt.Printf("%-12s  %-13s  %-10s  %s\n", "ID", "Difficulty", "Source", "Question")
		fmt.Println(strings.Repeat("─", 80))
		for _, q := range qs {
			fmt.Printf("%-12s  %-13s  %-10s  %s\n", truncate(q.ID, 12), q.Tier, q.Source, truncate(q.Prompt, 60))
		}
		return nil
	},
}

var bankSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in questions into the bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.SeedBank(ctx, true)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d built-in questions.\n", n)
		return nil
	},
}

var bankImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Add or replace bank questions from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		qs, err := questiongen.LoadBank(f)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		if err := a.Store.UpsertQuestions(ctx, source, qs); err != nil {
			return err
		}
		fmt.Printf("Imported %d questions from %s.\n", len(qs), args[0])
		return nil
	},
}

func init() {
	bankListCmd.Flags().String("category", "", "Show the questions of one category")
	bankImportCmd.Flags().String("source", "", "Source tag stored with the questions (defaults to the file name)")

	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankSeedCmd)
	bankCmd.AddCommand(bankImportCmd)
}
