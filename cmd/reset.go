package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a player's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, _ := cmd.Flags().GetString("user")
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			fmt.Printf("Delete all progress for %q? [y/N] ", user)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service.Reset(ctx, user); err != nil {
			return err
		}
		fmt.Printf("Progress for %q deleted.\n", user)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("user", defaultUser(), "Player id")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
