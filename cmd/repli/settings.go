package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/repli/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or change the stored reply settings",
}

var settingsSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Store one setting (api-key, model, custom-instructions)",
	Args:      cobra.ExactArgs(2),
	ValidArgs: settings.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := settings.Open(cfg.Settings.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Set(cmd.Context(), args[0], args[1])
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the settings as JSON with the API key masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := settings.Open(cfg.Settings.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		snap, err := store.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Redacted())
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd, settingsGetCmd)
	rootCmd.AddCommand(settingsCmd)
}
