// Command repli keeps "generate reply" triggers injected into LinkedIn and
// X/Twitter pages of a Chrome it drives.
//
// Usage:
//
//	repli run https://www.linkedin.com/feed/       # launch Chrome and activate a page
//	repli run -c repli.yaml                        # pages, browser and API from YAML
//	repli settings set api-key sk-...              # store the completion API key
//	repli inspect saved.html --site linkedin       # check selectors against a saved page
//	repli mcp                                      # MCP control tools on stdio
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/repli"
)

var rootCmd = &cobra.Command{
	Use:           "repli",
	Short:         "Generate replies to social-network posts from a button in the page",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "repli:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to repli.yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("settings-db", "", "settings database path (overrides config)")
}

// loadConfig reads the --config file, or the defaults, and applies the
// persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*repli.FileConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := repli.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = repli.LoadConfigFile(path); err != nil {
			return nil, err
		}
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if db, _ := cmd.Flags().GetString("settings-db"); db != "" {
		cfg.Settings.Path = db
	}
	return cfg, nil
}

// newLogger builds the JSON logger on stderr; stdout is reserved for
// command output and the MCP stdio transport.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
