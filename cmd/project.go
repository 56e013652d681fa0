package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/peerview-cli/internal/model"
)

var (
	projectName     string
	projectIndustry string
	projectLocation string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage research projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project scoping one industry and market",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if projectIndustry == "" || projectLocation == "" {
			return eris.New("--industry and --location are required")
		}
		name := projectName
		if name == "" {
			name = fmt.Sprintf("%s / %s", projectIndustry, projectLocation)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		project, err := st.CreateProject(ctx, name, projectIndustry, projectLocation)
		if err != nil {
			return err
		}
		fmt.Printf("created project %s (%s)\n", project.ID, project.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		projects, err := st.ListProjects(ctx)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("no projects")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%s  %-10s  %-30s  %s\n", p.ID, p.Status, p.Industry, p.Location)
		}
		return nil
	},
}

var projectStatusCmd = &cobra.Command{
	Use:   "status <project-id> <status>",
	Short: "Set a project's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status := model.ProjectStatus(args[1])
		switch status {
		case model.ProjectStatusCreated, model.ProjectStatusEnriching,
			model.ProjectStatusReview, model.ProjectStatusReported, model.ProjectStatusArchived:
		default:
			return eris.Errorf("unknown status %q", args[1])
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return st.UpdateProjectStatus(ctx, args[0], status)
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "display name (defaults to industry / location)")
	projectCreateCmd.Flags().StringVar(&projectIndustry, "industry", "", "target industry")
	projectCreateCmd.Flags().StringVar(&projectLocation, "location", "", "target market, e.g. \"Austin, TX\"")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectStatusCmd)
	rootCmd.AddCommand(projectCmd)
}
