package main

import (
	"github.com/chrissnell/decoplanner/internal/app"
	"github.com/chrissnell/decoplanner/internal/controllers/restserver"
	"github.com/chrissnell/decoplanner/internal/log"
	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		listen      string
		archiveConn string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner over HTTP",
		Long: `Serve the planner REST API until interrupted. Preference changes made
while the server runs apply to later requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, base, err := opts.openPreferences(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			restConfig := restserver.Config{ListenAddr: listen, Base: base}
			if archiveConn != "" {
				plans, err := archive.Open(archiveConn)
				if err != nil {
					return err
				}
				defer plans.Close()
				restConfig.Archive = plans
			}

			return app.New(restConfig, store, log.Named("rest")).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", restserver.DefaultListenAddr, "Address to listen on")
	cmd.Flags().StringVar(&archiveConn, "archive", "", "Postgres connection string for the plan archive")

	return cmd
}
