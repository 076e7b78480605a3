package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a player's history as a spreadsheet or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("output")
		if format != report.FormatXLSX && format != report.FormatCSV {
			return fmt.Errorf("unknown format %q", format)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.Service.Export(ctx, user)
		if err != nil {
			return err
		}
		if out == "" {
			out = report.Filename(user, format, data.GeneratedAt)
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := report.Write(f, format, data); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Wrote %d sessions to %s.\n", len(data.Sessions), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("user", defaultUser(), "Player id")
	exportCmd.Flags().StringP("format", "f", report.FormatXLSX, "Output format: xlsx or csv")
	exportCmd.Flags().StringP("output", "o", "", "Output file (defaults to a generated name)")
}
