package browser

import (
	"context"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	m := NewManager(Config{})
	if m.cfg.XvfbDisplay != ":99" {
		t.Errorf("display = %q", m.cfg.XvfbDisplay)
	}
	if m.cfg.Logger == nil {
		t.Error("logger not defaulted")
	}
	if m.cfg.Headless {
		t.Error("manager must default to headful")
	}
}

func TestNoBrowser(t *testing.T) {
	m := NewManager(Config{})
	if m.Browser() != nil {
		t.Fatal("browser before Start")
	}
	if _, err := OpenTab(context.Background(), m, "https://example.com"); err == nil {
		t.Error("OpenTab without a browser succeeded")
	}
	if err := m.GrantClipboard(); err == nil {
		t.Error("GrantClipboard without a browser succeeded")
	}
	if _, err := m.Pages(); err == nil {
		t.Error("Pages without a browser succeeded")
	}
}

func TestStartAfterClose(t *testing.T) {
	m := NewManager(Config{})
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Start(context.Background()); err == nil {
		t.Error("Start on a closed manager succeeded")
	}
}

func TestXvfbSocket(t *testing.T) {
	for display, want := range map[string]string{
		":99":  "/tmp/.X11-unix/X99",
		":1.0": "/tmp/.X11-unix/X1",
		"42":   "/tmp/.X11-unix/X42",
	} {
		if got := xvfbSocket(display); got != want {
			t.Errorf("xvfbSocket(%q) = %q, want %q", display, got, want)
		}
	}
}

func TestWaitSocketTimeout(t *testing.T) {
	if err := waitSocket(t.TempDir()+"/missing", 60*time.Millisecond); err == nil {
		t.Error("waitSocket on a missing path succeeded")
	}
	if err := waitSocket(t.TempDir(), time.Second); err != nil {
		t.Errorf("waitSocket on an existing path: %v", err)
	}
}
