package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/buildledger/ledgerroute/internal/cli"
	"github.com/buildledger/ledgerroute/internal/model"
)

func projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage the project directory",
	}

	cmd.AddCommand(projectsListCmd())
	cmd.AddCommand(projectsAddCmd())

	return cmd
}

func projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <company-id>",
		Short: "List the active projects for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			projects, err := a.db.ListProjects(ctx, args[0])
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No projects found."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Projects"))
			for _, project := range projects {
				fmt.Printf("%-38s %-10s %s\n", project.ID, project.Code, project.Name)
			}
			return nil
		},
	}
}

func projectsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <company-id> <name>",
		Short: "Add a project to the directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			code, _ := cmd.Flags().GetString("code")

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			project := model.Project{
				ID:        uuid.NewString(),
				CompanyID: args[0],
				Name:      args[1],
				Code:      code,
				IsActive:  true,
			}

			if err := a.db.SaveProject(ctx, &project); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created project %s (%s)", project.Name, project.ID)))
			return nil
		},
	}
	cmd.Flags().String("code", "", "project code used by auto-detect rules")
	return cmd
}
