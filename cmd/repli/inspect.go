package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/repli"
	"github.com/hazyhaar/repli/dom/htmldom"
	"github.com/hazyhaar/repli/site"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.html>",
	Short: "Run a site's selectors against a saved page and print what they find",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("site")
		adapter, ok := site.ByName(name)
		if !ok {
			return fmt.Errorf("unknown site %q (known: %v)", name, site.Names())
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err := htmldom.Parse(f)
		if err != nil {
			return err
		}

		findings, err := repli.Inspect(cmd.Context(), doc, adapter)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	},
}

func init() {
	inspectCmd.Flags().String("site", "linkedin", "site adapter to apply")
	rootCmd.AddCommand(inspectCmd)
}
