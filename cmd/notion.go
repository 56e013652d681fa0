package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/pkg/notion"
)

var notionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Sync results to Notion",
}

var notionExportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Upsert the project's benchmark summary into the Notion database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("notion"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		project, err := st.GetProject(ctx, args[0])
		if err != nil {
			return err
		}
		if project == nil {
			return eris.Errorf("project %s not found", args[0])
		}

		summary, err := st.GetBenchmarkSummary(ctx, args[0])
		if err != nil {
			return err
		}
		if summary == nil {
			return eris.Errorf("project %s has no benchmark summary, run compute first", args[0])
		}

		client := notion.NewClient(cfg.Notion.Token)
		page, err := notion.ExportSummary(ctx, client, cfg.Notion.BenchmarkDB, project, summary)
		if err != nil {
			return err
		}

		fmt.Printf("exported benchmark for %s (page %s)\n", project.Name, page.ID)
		return nil
	},
}

func init() {
	notionCmd.AddCommand(notionExportCmd)
	rootCmd.AddCommand(notionCmd)
}
