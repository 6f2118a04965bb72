package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repli.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
browser:
  remote: ws://127.0.0.1:9222/devtools/browser/abc
  stealth: true
pages:
  - https://www.linkedin.com/feed/
  - https://x.com/compose/post
inject:
  settle: 250ms
completion:
  endpoint: http://localhost:8080/v1/chat/completions
settings:
  path: /tmp/repli.db
clipboard: system
http:
  addr: 127.0.0.1:7777
log_level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Browser.Remote != "ws://127.0.0.1:9222/devtools/browser/abc" || !cfg.Browser.Stealth {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if len(cfg.Pages) != 2 || cfg.Pages[1] != "https://x.com/compose/post" {
		t.Errorf("pages = %v", cfg.Pages)
	}
	if cfg.Inject.Settle != 250*time.Millisecond {
		t.Errorf("settle = %v", cfg.Inject.Settle)
	}
	if cfg.Inject.MaxWait != 500*time.Millisecond {
		t.Errorf("max_wait default = %s", cfg.Inject.MaxWait)
	}
	if cfg.Inject.MaxBurst != 1000 {
		t.Errorf("max_burst default = %d", cfg.Inject.MaxBurst)
	}
	if cfg.Clipboard != ClipboardSystem || cfg.HTTP.Addr != "127.0.0.1:7777" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Settings.Path != "/tmp/repli.db" {
		t.Errorf("settings path = %q", cfg.Settings.Path)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Browser.Mode != ModeHeadful {
		t.Errorf("mode = %q", cfg.Browser.Mode)
	}
	if cfg.Inject.Settle != 100*time.Millisecond {
		t.Errorf("settle = %v", cfg.Inject.Settle)
	}
	if cfg.Clipboard != ClipboardPage {
		t.Errorf("clipboard = %q", cfg.Clipboard)
	}
	if !strings.HasSuffix(cfg.Completion.Endpoint, "/v1/chat/completions") {
		t.Errorf("endpoint = %q", cfg.Completion.Endpoint)
	}
	if cfg.Settings.Path == "" {
		t.Error("settings path not defaulted")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []string{
		"clipboard: carrier-pigeon\n",
		"browser:\n  mode: invisible\n",
		"pages: [unterminated\n",
	}
	for _, body := range tests {
		if _, err := LoadFile(writeFile(t, body)); err == nil {
			t.Errorf("LoadFile(%q) succeeded, want error", body)
		}
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}
