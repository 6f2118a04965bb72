package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var version = "dev"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the control tools over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := startDaemon(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer d.close(logger)

		for _, u := range cfg.Pages {
			if _, err := d.agent.Activate(ctx, u); err != nil {
				logger.Error("repli: activate page", "url", u, "error", err)
			}
		}

		srv := mcp.NewServer(&mcp.Implementation{Name: "repli", Version: version}, nil)
		d.agent.RegisterMCP(srv)
		logger.Info("repli: mcp server on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
