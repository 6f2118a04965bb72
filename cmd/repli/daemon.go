package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/repli"
	"github.com/hazyhaar/repli/completion"
	"github.com/hazyhaar/repli/internal/browser"
	"github.com/hazyhaar/repli/settings"
)

// daemon is the browser, settings store and agent behind run and mcp.
type daemon struct {
	agent *repli.Agent
	mgr   *browser.Manager
	store *settings.Store
}

func startDaemon(ctx context.Context, cfg *repli.FileConfig, logger *slog.Logger) (*daemon, error) {
	store, err := openSettings(ctx, cfg.Settings.Path, logger)
	if err != nil {
		return nil, err
	}

	mgr := repli.NewBrowserManager(cfg.Browser, logger)
	if _, err := mgr.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	if cfg.Clipboard == repli.ClipboardPage {
		if err := mgr.GrantClipboard(); err != nil {
			logger.Warn("repli: clipboard permission not granted", "error", err)
		}
	}

	agent, err := repli.New(repli.Config{
		Opener: &repli.ChromeOpener{
			Manager: mgr,
			Reuse:   cfg.Browser.Remote != "",
			Logger:  logger,
		},
		Completer: completion.NewClient(
			completion.WithEndpoint(cfg.Completion.Endpoint),
			completion.WithLogger(logger),
		),
		Settings:  store,
		Clipboard: repli.ClipboardFor(cfg.Clipboard),
		Settle:    cfg.Inject.Settle,
		MaxWait:   cfg.Inject.MaxWait,
		MaxBurst:  cfg.Inject.MaxBurst,
		Logger:    logger,
	})
	if err != nil {
		mgr.Close()
		store.Close()
		return nil, err
	}
	return &daemon{agent: agent, mgr: mgr, store: store}, nil
}

func (d *daemon) close(logger *slog.Logger) {
	if err := d.agent.Close(context.Background()); err != nil {
		logger.Warn("repli: close sessions", "error", err)
	}
	d.mgr.Close()
	d.store.Close()
}

// openSettings opens the settings store and seeds the API key from
// REPLI_API_KEY when set.
func openSettings(ctx context.Context, path string, logger *slog.Logger) (*settings.Store, error) {
	store, err := settings.Open(path)
	if err != nil {
		return nil, err
	}
	if key := os.Getenv("REPLI_API_KEY"); key != "" {
		if err := store.Set(ctx, settings.KeyAPIKey, key); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("repli: api key seeded from environment", "key", settings.Mask(key))
	}
	return store, nil
}
