package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/peerview-cli/internal/profile"
)

var (
	profileIndustry string
	profileTerms    []string
	profileTypes    []string
	profileRadius   float64
	profilePages    int
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage search profiles",
}

var profileInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Write a search profile to the profile directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		industry := profileIndustry
		if industry == "" {
			industry = args[0]
		}

		p := profile.Default(industry)
		p.Name = args[0]
		if len(profileTerms) > 0 {
			p.Terms = profileTerms
		}
		p.PlaceTypes = profileTypes
		if profileRadius > 0 {
			p.RadiusKM = profileRadius
		}
		if profilePages > 0 {
			p.MaxPages = profilePages
		}

		path := filepath.Join(cfg.Discovery.ProfileDir, args[0]+".yaml")
		if err := p.Save(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(filepath.Join(cfg.Discovery.ProfileDir, args[0]+".yaml"))
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(p)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	profileInitCmd.Flags().StringVar(&profileIndustry, "industry", "", "target industry (defaults to the profile name)")
	profileInitCmd.Flags().StringSliceVar(&profileTerms, "terms", nil, "search terms")
	profileInitCmd.Flags().StringSliceVar(&profileTypes, "types", nil, "mapping-API place types for the nearby sweep")
	profileInitCmd.Flags().Float64Var(&profileRadius, "radius", 0, "sweep radius in km")
	profileInitCmd.Flags().IntVar(&profilePages, "pages", 0, "max result pages per term")

	profileCmd.AddCommand(profileInitCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}
