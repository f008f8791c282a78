package cli

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chartsight/internal/analyzer"
	"chartsight/internal/app"
	"chartsight/internal/audit"
	"chartsight/internal/auth"
	"chartsight/internal/config"
	"chartsight/internal/logging"
	"chartsight/internal/session"
	"chartsight/internal/store"
)

// Version information
const Version = "0.1.0"

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	var application *app.App
	var dataStore store.Store

	rootCmd := &cobra.Command{
		Use:   "chartsight",
		Short: "ChartSight - AI trading chart analysis with gated access",
		Long: `ChartSight analyzes trading chart images with a multimodal AI model and
keeps a capped history of structured results.

Access is gated: users log in with a time-limited access code, admins with
the master key. Admins issue and revoke access codes.

History and codes persist to a remote Postgres store when configured,
falling back to a local store otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				logger = logger.Level(zerolog.DebugLevel)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			st, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			dataStore = st
			logger = logging.WithBackend(logger, st.Backend())
			logger.Debug().Msg("Store initialized")

			var auditLogger *audit.Logger
			auditLogger, err = audit.NewLogger(filepath.Join(config.DefaultConfigDir(), "logs"))
			if err != nil {
				logger.Warn().Err(err).Msg("Audit trail unavailable")
				auditLogger = nil
			}

			marker := session.NewFileMarker("")
			authMgr := auth.NewManager(st, marker, cfg.Access.MasterKey,
				auth.WithLogger(logger), auth.WithAudit(auditLogger))
			an := analyzer.NewOpenAIAnalyzer(cfg.Credentials.OpenAI.APIKey, cfg.Analyzer.Model)

			application = app.New(logger, st, authMgr, an, app.WithAudit(auditLogger))
			cmd.SetContext(logging.WithLogger(ctx, logger))
			if err := application.Bootstrap(ctx); err != nil {
				// Usable with empty collections; surface and continue.
				logger.Warn().Err(err).Msg("Bootstrap incomplete, starting with empty collections")
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if dataStore != nil {
				dataStore.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	appRef := func() *app.App { return application }

	addAuthCommands(rootCmd, appRef)
	addAnalyzeCommands(rootCmd, appRef, cfg)
	addHistoryCommands(rootCmd, appRef)
	addCodeCommands(rootCmd, appRef)

	return rootCmd
}
