package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/internal/addrmatch"
)

var (
	addrcheckMinSim  float64
	addrcheckLimit   int
	addrcheckVerbose bool
	addrcheckCSV     string
)

var addrcheckCmd = &cobra.Command{
	Use:   "addrcheck <project-id>",
	Short: "Audit pulled financials against discovery addresses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := addrmatch.NewRunner(st, os.Stdout).Run(ctx, args[0], addrmatch.Options{
			MinSimilarity: addrcheckMinSim,
			Limit:         addrcheckLimit,
			Verbose:       addrcheckVerbose,
		})
		if err != nil {
			return err
		}

		if addrcheckCSV != "" {
			if err := addrmatch.WriteCSV(result.Mismatches, addrcheckCSV); err != nil {
				return err
			}
			fmt.Printf("wrote %d mismatches to %s\n", len(result.Mismatches), addrcheckCSV)
		}
		return nil
	},
}

func init() {
	addrcheckCmd.Flags().Float64Var(&addrcheckMinSim, "min-similarity", 1.0, "name similarity below which a row is a mismatch")
	addrcheckCmd.Flags().IntVar(&addrcheckLimit, "limit", 0, "max rows to evaluate (0 = all)")
	addrcheckCmd.Flags().BoolVar(&addrcheckVerbose, "verbose", false, "print matches too, not just mismatches")
	addrcheckCmd.Flags().StringVar(&addrcheckCSV, "csv", "", "write mismatches to this CSV path")
	rootCmd.AddCommand(addrcheckCmd)
}
