package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report <project-id>",
	Short: "Render the workbook, CSV, map, and shapefile deliverables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		outDir := reportOut
		if outDir == "" {
			outDir = cfg.Report.OutputDir
		}

		art, err := report.NewBuilder(st).Build(ctx, args[0], outDir)
		if err != nil {
			return err
		}

		fmt.Printf("workbook:  %s\n", art.Workbook)
		fmt.Printf("csv:       %s\n", art.CSV)
		if art.Map != "" {
			fmt.Printf("map:       %s\n", art.Map)
			fmt.Printf("shapefile: %s\n", art.Shapefile)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(reportCmd)
}
