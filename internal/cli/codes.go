package cli

import (
	"time"

	"github.com/spf13/cobra"

	"chartsight/internal/app"
	"chartsight/pkg/utils"
)

// addCodeCommands adds the admin code management command group.
func addCodeCommands(rootCmd *cobra.Command, appRef func() *app.App) {
	codesCmd := &cobra.Command{
		Use:   "codes",
		Short: "Manage access codes (admin)",
	}

	codesCmd.AddCommand(newCodesListCmd(appRef))
	codesCmd.AddCommand(newCodesGenerateCmd(appRef))
	codesCmd.AddCommand(newCodesRevokeCmd(appRef))

	rootCmd.AddCommand(codesCmd)
}

func newCodesListCmd(appRef func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all access codes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			codes := a.Auth.Codes()
			if output.IsJSON() {
				return output.JSON(codes)
			}

			if len(codes) == 0 {
				output.Info("No access codes issued.")
				return nil
			}

			now := time.Now()
			output.Bold("Access codes (%d)", len(codes))
			for _, c := range codes {
				output.Printf("%s  %-4s  %s\n",
					c.Code,
					utils.FormatDuration(c.Duration),
					utils.FormatExpiry(c, now),
				)
			}
			return nil
		},
	}
}

func newCodesGenerateCmd(appRef func() *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Issue a new time-limited access code",
		Example: `  chartsight codes generate --days 7
  chartsight codes generate --hours 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			days, _ := cmd.Flags().GetFloat64("days")
			hours, _ := cmd.Flags().GetFloat64("hours")
			if hours > 0 {
				days = hours / 24
			}

			code, err := a.Auth.GenerateCode(cmd.Context(), days)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(code)
			}
			output.Success("Issued %s (valid %s)", code.Code, utils.FormatDuration(code.Duration))
			return nil
		},
	}

	cmd.Flags().Float64("days", 1, "validity in days (fractional allowed)")
	cmd.Flags().Float64("hours", 0, "validity in hours (overrides --days)")
	return cmd
}

func newCodesRevokeCmd(appRef func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <code>",
		Short: "Revoke an access code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			if err := a.Auth.DeleteCode(cmd.Context(), args[0]); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Revoked %s", args[0])
			return nil
		},
	}
}
