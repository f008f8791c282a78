package cli

import (
	"github.com/spf13/cobra"

	"chartsight/internal/app"
	"chartsight/internal/config"
	"chartsight/internal/errors"
	"chartsight/internal/logging"
	"chartsight/internal/models"
	"chartsight/pkg/utils"
)

// addAnalyzeCommands adds the analyze command.
func addAnalyzeCommands(rootCmd *cobra.Command, appRef func() *app.App, cfg *config.Config) {
	rootCmd.AddCommand(newAnalyzeCmd(appRef, cfg))
}

func newAnalyzeCmd(appRef func() *app.App, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <chart-image>",
		Short: "Analyze a trading chart image",
		Long: `Analyze a trading chart image with the configured vision model.

The image is downscaled before upload. A successful analysis is appended
to the history, which keeps the 20 most recent results.`,
		Example: `  chartsight analyze ./xauusd-4h.png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			a := appRef()

			if a.Auth.Role() == models.RoleUnauthorized {
				output.Error("Not logged in. Run 'chartsight login' first.")
				return errors.ErrNotAuthenticated
			}

			if err := a.SubmitImageFile(args[0], cfg.Analyzer.MaxImageEdge); err != nil {
				output.Error("%v", err)
				return err
			}
			log := logging.FromContext(cmd.Context())
			log.Debug().Str("image", args[0]).Msg("Chart image staged")

			output.Info("Analyzing chart...")
			result, err := a.RunAnalysis(cmd.Context())
			if err != nil && result == nil {
				output.Error("%s", a.LastError())
				return err
			}

			if output.IsJSON() {
				if jerr := output.JSON(result); jerr != nil {
					return jerr
				}
			} else {
				displayResult(output, result)
			}

			// Result shown even when the write-through failed; say so.
			if err != nil {
				output.Warning("%v", err)
				return err
			}
			return nil
		},
	}
}

func displayResult(output *Output, r *models.AnalysisResult) {
	output.Println()
	output.Bold("━━━ Trade Signal ━━━")
	output.Printf("Pair:       %s\n", r.Signal.Pair)
	output.Printf("Action:     %s\n", output.ActionString(string(r.Signal.Action)))
	output.Printf("Entry:      %s\n", r.Signal.Entry)
	output.Printf("TP:         %s\n", r.Signal.TP)
	output.Printf("SL:         %s\n", r.Signal.SL)
	output.Printf("Confidence: %s\n", utils.FormatConfidence(r.Signal.Confidence))
	output.Println()
	output.Printf("%s\n", r.Signal.Reasoning)

	output.Println()
	output.Bold("━━━ Technical ━━━")
	output.Printf("SNR:       %s\n", r.Technical.SNR)
	output.Printf("ICT:       %s\n", r.Technical.ICT)
	output.Printf("STD:       %s\n", r.Technical.STD)
	output.Printf("Alchemist: %s\n", r.Technical.Alchemist)

	if r.Fundamental != "" {
		output.Println()
		output.Bold("━━━ Fundamental ━━━")
		output.Printf("%s\n", r.Fundamental)
	}

	output.Println()
	output.Dim("Analyzed at %s", utils.FormatTimestamp(r.Timestamp))
}
