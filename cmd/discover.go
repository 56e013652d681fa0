package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/internal/discovery"
	"github.com/sells-group/peerview-cli/internal/profile"
	"github.com/sells-group/peerview-cli/pkg/places"
)

var (
	discoverProfile    string
	discoverLat        float64
	discoverLon        float64
	discoverGridStep   float64
	discoverMaxResults int
)

var discoverCmd = &cobra.Command{
	Use:   "discover <project-id>",
	Short: "Sweep the mapping API for businesses in the project's market",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("discover"); err != nil {
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

		prof, err := loadProfile(project.Industry)
		if err != nil {
			return err
		}

		client := places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))

		maxResults := discoverMaxResults
		if maxResults == 0 {
			maxResults = cfg.Places.MaxResults
		}
		gridStep := discoverGridStep
		if gridStep == 0 {
			gridStep = cfg.Discovery.GridStepKM
		}

		summary, err := discovery.New(st, client).Run(ctx, project, prof, discovery.Options{
			Latitude:   discoverLat,
			Longitude:  discoverLon,
			GridStepKM: gridStep,
			MaxResults: maxResults,
		})
		if err != nil {
			return err
		}

		fmt.Printf("queried %d, found %d, unique %d, inserted %d\n",
			summary.Queried, summary.Found, summary.Unique, summary.Inserted)
		return nil
	},
}

// loadProfile resolves the --profile flag: a path when it looks like one, a
// name under the profile directory otherwise, and an industry-derived default
// when absent.
func loadProfile(industry string) (*profile.Profile, error) {
	if discoverProfile == "" {
		p := profile.Default(industry)
		p.RadiusKM = cfg.Discovery.RadiusKM
		p.MaxPages = cfg.Discovery.MaxPages
		return p, nil
	}

	path := discoverProfile
	if !strings.ContainsAny(path, "/\\") && filepath.Ext(path) == "" {
		path = filepath.Join(cfg.Discovery.ProfileDir, path+".yaml")
	}
	return profile.Load(path)
}

func init() {
	discoverCmd.Flags().StringVar(&discoverProfile, "profile", "", "search profile name or path")
	discoverCmd.Flags().Float64Var(&discoverLat, "lat", 0, "sweep center latitude")
	discoverCmd.Flags().Float64Var(&discoverLon, "lon", 0, "sweep center longitude")
	discoverCmd.Flags().Float64Var(&discoverGridStep, "grid-step", 0, "nearby-search grid spacing in km (default from config)")
	discoverCmd.Flags().IntVar(&discoverMaxResults, "max-results", 0, "cap on unique places (default from config)")
	rootCmd.AddCommand(discoverCmd)
}
