package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [url...]",
	Short: "Launch or attach to Chrome and keep reply triggers injected",
	Long: `Starts the browser, activates every page listed in the configuration and
on the command line, and serves the HTTP control API when http.addr is set.
Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if remote, _ := cmd.Flags().GetString("remote"); remote != "" {
			cfg.Browser.Remote = remote
		}
		if headless, _ := cmd.Flags().GetBool("headless"); headless {
			cfg.Browser.Mode = "headless"
		}
		if addr, _ := cmd.Flags().GetString("http"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
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

		for _, u := range append(cfg.Pages, args...) {
			if _, err := d.agent.Activate(ctx, u); err != nil {
				logger.Error("repli: activate page", "url", u, "error", err)
			}
		}

		if cfg.HTTP.Addr != "" {
			srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: d.agent.Handler()}
			go func() {
				logger.Info("repli: control API listening", "addr", cfg.HTTP.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("repli: control API", "error", err)
					stop()
				}
			}()
			defer func() {
				shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutCtx)
			}()
		}

		<-ctx.Done()
		logger.Info("repli: shutting down")
		return nil
	},
}

func init() {
	runCmd.Flags().String("remote", "", "DevTools WebSocket URL of a running Chrome")
	runCmd.Flags().Bool("headless", false, "launch Chrome without a window")
	runCmd.Flags().String("http", "", "control API listen address, e.g. 127.0.0.1:7777")
	rootCmd.AddCommand(runCmd)
}
