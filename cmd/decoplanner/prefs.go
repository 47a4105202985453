package main

import (
	"fmt"
	"strconv"

	"github.com/chrissnell/decoplanner/internal/report"
	"github.com/chrissnell/decoplanner/pkg/config"
	"github.com/spf13/cobra"
)

func newPrefsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and change stored preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := opts.openPreferences(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([]report.Preference, len(all))
			for i, c := range all {
				rows[i] = report.Preference{Key: c.Key, Kind: string(c.Kind), Value: c.Value}
			}
			report.WritePreferences(cmd.OutOrStdout(), rows, opts.format())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one preference, or its default when unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := opts.openPreferences(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			key := args[0]
			if _, ok := config.KindOf(key); !ok {
				return fmt.Errorf("unknown preference %q", key)
			}
			value, err := config.ConfigurationValue(cfg, key)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.openPreferences(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			return setPreference(cmd, store, args[0], args[1])
		},
	})

	return cmd
}

func setPreference(cmd *cobra.Command, store config.PreferenceStore, key, raw string) error {
	ctx := cmd.Context()
	kind, ok := config.KindOf(key)
	if !ok {
		return fmt.Errorf("unknown preference %q", key)
	}

	switch kind {
	case config.KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s needs a number: %w", key, err)
		}
		return store.SetFloat(ctx, key, v)
	case config.KindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s needs a whole number: %w", key, err)
		}
		return store.SetInt(ctx, key, v)
	case config.KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s needs true or false: %w", key, err)
		}
		return store.SetBool(ctx, key, v)
	default:
		if err := config.ValidateString(key, raw); err != nil {
			return err
		}
		return store.SetString(ctx, key, raw)
	}
}
