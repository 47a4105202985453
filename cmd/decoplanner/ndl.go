package main

import (
	"github.com/chrissnell/decoplanner/internal/report"
	"github.com/chrissnell/decoplanner/pkg/physics"
	"github.com/chrissnell/decoplanner/pkg/planner"
	"github.com/spf13/cobra"
)

func newNDLCmd(opts *rootOptions) *cobra.Command {
	var (
		o2, he float64
		depths []float64
	)

	cmd := &cobra.Command{
		Use:   "ndl",
		Short: "Print no-decompression limits",
		Long: `Print the no-decompression limit at each depth for one gas, using the
stored preferences for the model and gradient factors. Gas fractions are
given in percent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gas, err := physics.NewGas(o2/100, he/100)
			if err != nil {
				return err
			}

			store, cfg, err := opts.openPreferences(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			limits := planner.NoDecompressionLimits(cfg, gas, depths)
			return report.WriteNDL(cmd.OutOrStdout(), gas.String(), depths, limits, opts.format())
		},
	}

	cmd.Flags().Float64Var(&o2, "o2", 21, "Oxygen percentage")
	cmd.Flags().Float64Var(&he, "he", 0, "Helium percentage")
	cmd.Flags().Float64SliceVar(&depths, "depths", []float64{12, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42}, "Depths in meters")

	return cmd
}
