package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/internal/enrich"
	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/pkg/enigma"
)

var (
	enrichForce       bool
	enrichMaxTier     int
	enrichLimit       int
	enrichConcurrency int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <project-id>",
	Short: "Pull card-transaction financials for ranked businesses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		client := enigma.NewClient(cfg.Enigma.Key,
			enigma.WithBaseURL(cfg.Enigma.BaseURL),
			enigma.WithRateLimit(cfg.Enigma.RequestsPerSec))

		concurrency := enrichConcurrency
		if concurrency == 0 {
			concurrency = cfg.Enrich.Concurrency
		}

		summary, err := enrich.New(st, client).Run(ctx, args[0], enrich.RunOptions{
			Options: enrich.Options{
				MinConfidence: cfg.Enrich.MinConfidence,
				ForceRepull:   enrichForce || cfg.Enrich.ForceRepull,
				PullSessionID: uuid.NewString(),
			},
			Concurrency: concurrency,
			MaxTier:     model.Tier(enrichMaxTier),
			Limit:       enrichLimit,
		})
		if err != nil {
			return err
		}

		fmt.Printf("processed %d: pulled %d, reused %d, mapping-only %d, no-match %d, failed %d\n",
			summary.Processed, summary.Pulled, summary.Reused,
			summary.MappingOnly, summary.NoMatch, summary.Failed)
		return nil
	},
	Args: cobra.ExactArgs(1),
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichForce, "force", false, "purge and re-pull even when observations exist")
	enrichCmd.Flags().IntVar(&enrichMaxTier, "max-tier", 0, "include results up to this tier (default core only)")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max results to process (0 = all eligible)")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "parallel pulls (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
