package main

import (
	"errors"
	"fmt"

	"github.com/chrissnell/decoplanner/internal/report"
	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/chrissnell/decoplanner/pkg/gasplan"
	"github.com/chrissnell/decoplanner/pkg/migrate"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newArchiveCmd(opts *rootOptions) *cobra.Command {
	var conn string

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse the Postgres plan archive and manage its schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if conn == "" {
				return errors.New("--conn is required")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&conn, "conn", "", "Postgres connection string")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent archived plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := archive.Open(conn)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			report.WriteArchive(cmd.OutOrStdout(), records, opts.format())
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", archive.DefaultListLimit, "Maximum number of plans")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id: %w", err)
			}

			store, err := archive.Open(conn)
			if err != nil {
				return err
			}
			defer store.Close()

			record, plan, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return report.WritePlan(cmd.OutOrStdout(), record.Name, plan, gasplan.Calculate(plan), opts.format())
		},
	})

	var target int
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move the archive schema to a version (latest by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := archive.Connect(conn)
			if err != nil {
				return err
			}
			defer store.Close()

			migrator, err := store.Migrator()
			if err != nil {
				return err
			}
			if err := migrator.MigrateTo(target); err != nil {
				return err
			}
			version, err := migrator.CurrentVersion()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "archive schema at version %d\n", version)
			return nil
		},
	}
	migrateCmd.Flags().IntVar(&target, "to", migrate.Latest, "Target schema version, -1 for latest")
	cmd.AddCommand(migrateCmd)

	return cmd
}
