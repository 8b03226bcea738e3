package main

import (
	"github.com/spf13/cobra"

	"github.com/buildledger/ledgerroute/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Serve the routing engine's JSON API for the product's UI layer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.New(a.engine, a.db, a.cfg.Server.Addr)
			return srv.ListenAndServe(ctx)
		},
	}
}
