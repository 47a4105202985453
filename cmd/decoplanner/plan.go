package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/chrissnell/decoplanner/internal/log"
	"github.com/chrissnell/decoplanner/internal/report"
	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/chrissnell/decoplanner/pkg/config"
	"github.com/chrissnell/decoplanner/pkg/gasplan"
	"github.com/chrissnell/decoplanner/pkg/planner"
	"github.com/spf13/cobra"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var (
		requestFile string
		archiveConn string
		contingency bool
		noGas       bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a dive described in a YAML request file",
		Long: `Plan the dive described in a YAML request file and print the schedule,
the gas requirements and the oxygen exposure. Settings in the file override
the stored preferences.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filename, _ := filepath.Abs(requestFile)

			request, err := config.NewYAMLProvider(filename).LoadRequest()
			if err != nil {
				return fmt.Errorf("error reading plan request %s: %w", filename, err)
			}

			store, base, err := opts.openPreferences(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			input, err := request.Resolve(base)
			if err != nil {
				return err
			}

			dp := planner.NewDivePlanner(input.Configuration, planner.WithLogger(log.Named("planner")))
			plan, err := dp.Plan(input.Profile, input.DecoGases)
			if err != nil {
				return err
			}

			var gp *gasplan.GasPlan
			if !noGas {
				gp = gasplan.Calculate(plan)
			}
			out := cmd.OutOrStdout()
			if err := report.WritePlan(out, input.Name, plan, gp, opts.format()); err != nil {
				return err
			}

			if contingency {
				cfg := input.Configuration
				deeper := input.Profile.Contingency(cfg.ContingencyDeeper, cfg.ContingencyLonger)
				alt, err := dp.Plan(deeper, input.DecoGases)
				var sectionErr *planner.SectionError
				switch {
				case errors.As(err, &sectionErr):
					fmt.Fprintf(out, "\ncontingency plan not possible: %v\n", err)
				case err != nil:
					return err
				default:
					fmt.Fprintln(out)
					title := fmt.Sprintf("contingency +%gm/+%dmin", cfg.ContingencyDeeper, cfg.ContingencyLonger)
					var altGas *gasplan.GasPlan
					if !noGas {
						altGas = gasplan.Calculate(alt)
					}
					if err := report.WritePlan(out, title, alt, altGas, opts.format()); err != nil {
						return err
					}
				}
			}

			if archiveConn != "" {
				store, err := archive.Open(archiveConn)
				if err != nil {
					return err
				}
				defer store.Close()

				record, err := store.Save(ctx, input.Name, plan)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\narchived as %s\n", record.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestFile, "file", "f", "plan.yaml", "Plan request file")
	cmd.Flags().StringVar(&archiveConn, "archive", "", "Postgres connection string; archive the plan when set")
	cmd.Flags().BoolVar(&contingency, "contingency", false, "Also plan the deeper and longer contingency dive")
	cmd.Flags().BoolVar(&noGas, "no-gas", false, "Skip the gas requirements")

	return cmd
}
