// Package config handles repli configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level repli configuration.
type Config struct {
	Browser    BrowserConfig    `yaml:"browser"`
	Pages      []string         `yaml:"pages"` // URLs opened and activated at startup
	Inject     InjectConfig     `yaml:"inject"`
	Completion CompletionConfig `yaml:"completion"`
	Settings   SettingsConfig   `yaml:"settings"`
	Clipboard  string           `yaml:"clipboard"` // page | system | none
	HTTP       HTTPConfig       `yaml:"http"`
	LogLevel   string           `yaml:"log_level"`
}

// BrowserConfig controls the Chrome instance repli drives.
type BrowserConfig struct {
	// Remote is the DevTools WebSocket URL of a Chrome the user already
	// runs. Empty launches a local Chrome.
	Remote      string `yaml:"remote"`
	Mode        string `yaml:"mode"` // headful | headless
	Bin         string `yaml:"bin"`
	UserDataDir string `yaml:"user_data_dir"`
	Stealth     bool   `yaml:"stealth"`
	// Xvfb runs headful Chrome on a virtual display.
	Xvfb        bool   `yaml:"xvfb"`
	XvfbDisplay string `yaml:"xvfb_display"`
}

// InjectConfig tunes the injection controllers.
type InjectConfig struct {
	Settle   time.Duration `yaml:"settle"`
	MaxWait  time.Duration `yaml:"max_wait"` // cap on how long changes defer a pass
	MaxBurst int           `yaml:"max_burst"`
}

// CompletionConfig points at the chat-completion service.
type CompletionConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// SettingsConfig locates the settings database.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig enables the control API when Addr is set.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Clipboard modes.
const (
	ClipboardPage   = "page"
	ClipboardSystem = "system"
	ClipboardNone   = "none"
)

// Browser modes.
const (
	ModeHeadful  = "headful"
	ModeHeadless = "headless"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Clipboard {
	case ClipboardPage, ClipboardSystem, ClipboardNone:
	default:
		return fmt.Errorf("config: clipboard: unknown mode %q", c.Clipboard)
	}
	switch c.Browser.Mode {
	case ModeHeadful, ModeHeadless:
	default:
		return fmt.Errorf("config: browser.mode: unknown mode %q", c.Browser.Mode)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Mode == "" {
		c.Browser.Mode = ModeHeadful
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Inject.Settle <= 0 {
		c.Inject.Settle = 100 * time.Millisecond
	}
	if c.Inject.MaxWait < c.Inject.Settle {
		c.Inject.MaxWait = 2 * c.Inject.Settle
	}
	if c.Inject.MaxBurst <= 0 {
		c.Inject.MaxBurst = 1000
	}
	if c.Completion.Endpoint == "" {
		c.Completion.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if c.Settings.Path == "" {
		c.Settings.Path = defaultSettingsPath()
	}
	if c.Clipboard == "" {
		c.Clipboard = ClipboardPage
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func defaultSettingsPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/repli/settings.db"
	}
	return "repli-settings.db"
}
