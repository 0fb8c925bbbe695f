package commands

import (
	"fmt"
	"time"

	"adokpi/internal/azdo"
	"adokpi/internal/report"
	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	analyzeProject string
	analyzeOutput  string
	analyzeStates  []string
	analyzeTypes   []string
	analyzeFrom    string
	analyzeTo      string
)

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", name, value)
	}
	return &t, nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch a project's work items and write the efficiency reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		analysis, warnings := loadAnalysis()

		params, err := analysis.Params()
		if err != nil {
			return fmt.Errorf("analysis configuration: %w", err)
		}
		analyzer, err := scoring.NewAnalyzer(params)
		if err != nil {
			return err
		}

		query := azdo.Query{
			Project:   analyzeProject,
			States:    analyzeStates,
			Types:     analyzeTypes,
			DateField: analysis.Query.DateField,
		}
		if len(query.States) == 0 {
			query.States = analysis.Query.StatesToFetch
		}
		if len(query.Types) == 0 {
			query.Types = analysis.Query.WorkItemTypes
		}
		if query.From, err = parseDateFlag("from", analyzeFrom); err != nil {
			return err
		}
		if query.To, err = parseDateFlag("to", analyzeTo); err != nil {
			return err
		}

		fetcher := azdo.NewFetcher(azdoClient, cfg.FetchWorkers, cfg.FetchBatchSize)
		inputs, fetchDiags, err := fetcher.FetchProject(cmd.Context(), query)
		if err != nil {
			return err
		}

		result := analyzer.Analyze(inputs)
		result.Diagnostics = append(warnings, append(fetchDiags, result.Diagnostics...)...)

		outDir := analyzeOutput
		if outDir == "" {
			outDir = cfg.DataPath
		}
		paths, err := report.Save(outDir, result)
		if err != nil {
			return err
		}

		printSummary(cmd, result, paths)
		return nil
	},
}

func printSummary(cmd *cobra.Command, result scoring.Result, paths []string) {
	s := result.Summary
	cmd.Printf("Analyzed %d items (%d excluded), %d assignees\n",
		s.TotalItems, s.ExcludedItems, s.TotalAssignees)
	cmd.Printf("Avg fair efficiency: %.1f  Avg delivery score: %.1f  Active hours: %.1f\n",
		s.AvgFairEfficiency, s.AvgDeliveryScore, s.TotalActiveHours)
	for _, a := range result.Assignees {
		cmd.Printf("  %-30s overall %6.1f  (%d items, %.0f%% completed)\n",
			a.Assignee, a.OverallScore, a.TotalItems, a.CompletionRate)
	}
	if len(result.Bottlenecks) > 0 {
		cmd.Println("Bottlenecks:")
		for i, b := range result.Bottlenecks {
			cmd.Printf("  %d. %-20s avg %.1fh over %d stays\n", i+1, b.State, b.AverageHours, b.Occurrences)
		}
	}
	for _, d := range result.Diagnostics {
		log.Warn().Str("diagnostic", d.String()).Msg("Analysis diagnostic")
	}
	for _, p := range paths {
		cmd.Printf("Report: %s\n", p)
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeProject, "project", "p", "", "Azure DevOps project name")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "report output directory (default: DATA_PATH)")
	analyzeCmd.Flags().StringSliceVar(&analyzeStates, "states", nil, "override the states to fetch")
	analyzeCmd.Flags().StringSliceVar(&analyzeTypes, "types", nil, "override the work item types to fetch")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "inclusive lower bound on the configured date field (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "inclusive upper bound on the configured date field (YYYY-MM-DD)")
	_ = analyzeCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(analyzeCmd)
}
