package cli

import (
	"github.com/spf13/cobra"

	"chartsight/internal/app"
	"chartsight/internal/errors"
	"chartsight/internal/models"
	"chartsight/pkg/utils"
)

// addHistoryCommands adds the history command group.
func addHistoryCommands(rootCmd *cobra.Command, appRef func() *app.App) {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show past analysis results",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			if a.Auth.Role() == models.RoleUnauthorized {
				output.Error("Not logged in. Run 'chartsight login' first.")
				return errors.ErrNotAuthenticated
			}

			history := a.History()
			if output.IsJSON() {
				return output.JSON(history)
			}

			if len(history) == 0 {
				output.Info("No analysis history yet.")
				return nil
			}

			output.Bold("Analysis history (%d, newest first)", len(history))
			for i, r := range history {
				output.Printf("%2d. %s  %-10s %s  conf %s\n",
					i+1,
					utils.FormatTimestamp(r.Timestamp),
					r.Signal.Pair,
					output.ActionString(string(r.Signal.Action)),
					utils.FormatConfidence(r.Signal.Confidence),
				)
			}
			return nil
		},
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all analysis history",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			if a.Auth.Role() == models.RoleUnauthorized {
				output.Error("Not logged in. Run 'chartsight login' first.")
				return errors.ErrNotAuthenticated
			}

			if err := a.ClearHistory(cmd.Context()); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("History cleared")
			return nil
		},
	})

	rootCmd.AddCommand(historyCmd)
}
