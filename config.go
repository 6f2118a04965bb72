package repli

import (
	"log/slog"

	"github.com/hazyhaar/repli/internal/browser"
	"github.com/hazyhaar/repli/internal/config"
	"github.com/hazyhaar/repli/writer"
)

// FileConfig is the YAML configuration of the repli daemon. Re-exported
// from internal.
type FileConfig = config.Config

// BrowserConfig controls the Chrome instance.
type BrowserConfig = config.BrowserConfig

// Clipboard modes accepted in FileConfig.Clipboard.
const (
	ClipboardPage   = config.ClipboardPage
	ClipboardSystem = config.ClipboardSystem
	ClipboardNone   = config.ClipboardNone
)

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*FileConfig, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() *FileConfig {
	return config.Default()
}

// NewBrowserManager builds the browser manager for bc.
func NewBrowserManager(bc BrowserConfig, logger *slog.Logger) *browser.Manager {
	return browser.NewManager(browser.Config{
		RemoteURL:   bc.Remote,
		Headless:    bc.Mode == config.ModeHeadless,
		Bin:         bc.Bin,
		UserDataDir: bc.UserDataDir,
		Stealth:     bc.Stealth,
		Xvfb:        bc.Xvfb,
		XvfbDisplay: bc.XvfbDisplay,
		Logger:      logger,
	})
}

// ClipboardFor maps a clipboard mode to a Config.Clipboard function.
func ClipboardFor(mode string) func(Tab) writer.Clipboard {
	switch mode {
	case ClipboardPage:
		return PageClipboard
	case ClipboardSystem:
		return SystemClipboard
	default:
		return nil
	}
}
