package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/app"
	"github.com/abhisek/quizforge/internal/config"
	"github.com/abhisek/quizforge/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "quizforge",
	Short:        "Gamified quiz engine",
	Long:         "Quizforge serves leveled multiple-choice quizzes with XP, streaks, achievements and tier unlocks.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path (overrides QUIZFORGE_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.Database.DSN = dsn
		if cfg.Database.Driver == store.DriverSQLite {
			if err := store.EnsureDir(dsn); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}
	return cfg, nil
}

// openApp loads config and wires the engine. The bank is seeded on first
// use so every command sees questions.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := app.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if _, err := a.SeedBank(ctx, false); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed question bank: %w", err)
	}
	return a, nil
}
