package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/internal/benchmark"
	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/pipeline"
)

var computeCmd = &cobra.Command{
	Use:   "compute <project-id>",
	Short: "Recompute metric records and the benchmark summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		summary, err := pipeline.NewCompute(st, qualityFilter()).Run(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("enriched %d, extracted %d, trusted %d, demoted %d\n",
			summary.Enriched, summary.Extracted, summary.Trusted, summary.Demoted)
		if !summary.Benchmarked {
			fmt.Println("no trusted records: benchmark summary cleared")
		}
		return nil
	},
}

func qualityFilter() benchmark.QualityFilterConfig {
	return benchmark.QualityFilterConfig{
		MinRevenue:         cfg.Benchmark.MinRevenue,
		MaxAbsYoY:          cfg.Benchmark.MaxAbsYoY,
		TicketLowRatio:     cfg.Benchmark.TicketLowRatio,
		TicketHighRatio:    cfg.Benchmark.TicketHighRatio,
		RequireCoordinates: cfg.Benchmark.RequireCoordinates,
	}
}

var flagCmd = &cobra.Command{
	Use:   "flag <record-id> <trusted|low>",
	Short: "Override a metric record's benchmark eligibility",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flag := model.DataQuality(args[1])
		if flag != model.QualityTrusted && flag != model.QualityLow {
			return eris.Errorf("flag must be trusted or low, got %q", args[1])
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.UpdateBenchmarkFlag(cmd.Context(), args[0], flag); err != nil {
			return err
		}
		fmt.Printf("record %s flagged %s; rerun compute to refresh the benchmark\n", args[0], flag)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(flagCmd)
}
