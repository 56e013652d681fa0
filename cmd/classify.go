package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/internal/classify"
	"github.com/sells-group/peerview-cli/pkg/anthropic"
)

var classifyLimit int

var classifyCmd = &cobra.Command{
	Use:   "classify <project-id>",
	Short: "Rank discovered businesses by industry relevance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("classify"); err != nil {
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

		ai := anthropic.NewClient(cfg.Anthropic.Key)
		classified, err := classify.New(st, ai, cfg.Anthropic.Model).Run(ctx, project, classifyLimit)
		if err != nil {
			return err
		}

		fmt.Printf("classified %d results\n", classified)
		return nil
	},
}

func init() {
	classifyCmd.Flags().IntVar(&classifyLimit, "limit", 0, "max results to classify (0 = all unranked)")
	rootCmd.AddCommand(classifyCmd)
}
