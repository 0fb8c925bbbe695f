package commands

import (
	"adokpi/internal/azdo"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects [name-filter]",
	Short: "List the projects in the configured organization",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := azdoClient.ListProjects(cmd.Context())
		if err != nil {
			return err
		}

		filter := ""
		if len(args) > 0 {
			filter = args[0]
		}
		for _, p := range azdo.FilterProjects(projects, filter) {
			cmd.Printf("%-40s %s\n", p.Name, p.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
