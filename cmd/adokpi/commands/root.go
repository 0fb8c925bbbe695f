package commands

import (
	"adokpi/internal/azdo"
	"adokpi/internal/config"
	"adokpi/internal/logging"
	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	azdoClient azdo.Client
)

var rootCmd = &cobra.Command{
	Use:   "adokpi",
	Short: "ADOKPI analyzes work item efficiency in Azure DevOps",
	Long: `A work item analyzer for Azure DevOps that reconstructs state transition
histories, accounts productive and paused time against business hours, and
scores delivery timing and per-assignee productivity.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		azdoClient = azdo.NewClient(cfg.AzDO)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("ADOKPI starting")
	},
}

func loadAnalysis() (config.Analysis, []scoring.Diagnostic) {
	return config.LoadAnalysis(cfg.AnalysisConfigPath)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
