package commands

import (
	"adokpi/internal/azdo"
	"adokpi/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		analysis, warnings := loadAnalysis()
		for _, w := range warnings {
			log.Warn().Str("diagnostic", w.String()).Msg("Analysis configuration warning")
		}

		// Reject a broken scoring configuration at startup, not per tool call.
		if _, err := analysis.Params(); err != nil {
			return err
		}

		fetcher := azdo.NewFetcher(azdoClient, cfg.FetchWorkers, cfg.FetchBatchSize)
		log.Info().Msg("MCP server starting stdio loop")
		server := mcp.NewServer(azdoClient, fetcher, analysis)
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
