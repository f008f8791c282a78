package cli

import (
	"github.com/spf13/cobra"

	"chartsight/internal/app"
	"chartsight/internal/models"
)

// addAuthCommands adds login/logout/status commands.
func addAuthCommands(rootCmd *cobra.Command, appRef func() *app.App) {
	rootCmd.AddCommand(newLoginCmd(appRef))
	rootCmd.AddCommand(newLogoutCmd(appRef))
	rootCmd.AddCommand(newStatusCmd(appRef))
}

func newLoginCmd(appRef func() *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [access-code]",
		Short: "Log in with an access code or the master key",
		Example: `  chartsight login AB12CD34
  chartsight login --master SIGNAL-MASTER-2024`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			master, _ := cmd.Flags().GetString("master")
			if master != "" {
				if err := a.Auth.LoginMaster(master); err != nil {
					output.Error("%s", err.Error())
					return err
				}
				output.Success("Logged in as admin")
				return nil
			}

			if len(args) == 0 {
				output.Error("Provide an access code or --master <key>")
				return cmd.Usage()
			}

			if err := a.Auth.Login(args[0]); err != nil {
				output.Error("%s", err.Error())
				return err
			}
			output.Success("Logged in")
			return nil
		},
	}

	cmd.Flags().String("master", "", "master key for admin access")
	return cmd
}

func newLogoutCmd(appRef func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the session marker",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := appRef().Auth.Logout(); err != nil {
				output.Error("Logout failed: %v", err)
				return err
			}
			output.Success("Logged out")
			return nil
		},
	}
}

func newStatusCmd(appRef func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and store status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			role := a.Auth.Role()
			status := map[string]interface{}{
				"role":    role,
				"state":   a.State(),
				"history": len(a.History()),
			}
			if role == models.RoleAdmin {
				status["codes"] = len(a.Auth.Codes())
			}

			if output.IsJSON() {
				return output.JSON(status)
			}

			switch role {
			case models.RoleAdmin:
				output.Success("Session: admin")
				output.Printf("Access codes: %d\n", len(a.Auth.Codes()))
			case models.RoleUser:
				output.Success("Session: user")
			default:
				output.Warning("Session: not logged in")
			}
			output.Printf("History entries: %d\n", len(a.History()))
			return nil
		},
	}
}
