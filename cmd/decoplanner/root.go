package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chrissnell/decoplanner/internal/constants"
	"github.com/chrissnell/decoplanner/internal/log"
	"github.com/chrissnell/decoplanner/internal/report"
	"github.com/chrissnell/decoplanner/pkg/config"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type rootOptions struct {
	debug     bool
	prefsPath string
	markdown  bool
}

func (o *rootOptions) format() report.Format {
	if o.markdown {
		return report.FormatMarkdown
	}
	return report.FormatTable
}

// openPreferences opens the preference database and reads the planner
// configuration from it. The caller closes the store.
func (o *rootOptions) openPreferences(ctx context.Context) (*config.SQLiteStore, dive.Configuration, error) {
	store, err := config.NewSQLiteStore(o.prefsPath, log.GetSugaredLogger())
	if err != nil {
		return nil, dive.Configuration{}, err
	}
	cfg, err := config.LoadConfiguration(ctx, store)
	if err != nil {
		store.Close()
		return nil, dive.Configuration{}, fmt.Errorf("error reading preferences from %s: %w", o.prefsPath, err)
	}
	return store, cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "decoplanner",
		Short: "Bühlmann decompression dive planner",
		Long: `decoplanner plans multi-level decompression dives with the Bühlmann
ZH-L16 model and gradient factors, works out the gas each cylinder needs and
tracks oxygen exposure.`,
		Version: constants.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return log.Init(opts.debug)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			log.Sync()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// --no_gas and --no-gas are the same flag
	rootCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Turn on debugging output")
	rootCmd.PersistentFlags().StringVar(&opts.prefsPath, "prefs", constants.DefaultPreferencesFile, "Path to the SQLite preference database")
	rootCmd.PersistentFlags().BoolVar(&opts.markdown, "markdown", false, "Render tables as markdown")

	rootCmd.AddCommand(newPlanCmd(opts))
	rootCmd.AddCommand(newNDLCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newPrefsCmd(opts))
	rootCmd.AddCommand(newArchiveCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "decoplanner %s\n", constants.Version)
		},
	}
}
