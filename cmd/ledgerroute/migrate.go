package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildledger/ledgerroute/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// openApp already migrates; this command exists so operators can
			// run migrations explicitly before a deploy.
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Println(cli.FormatSuccess("Database schema is up to date"))
			return nil
		},
	}
}
