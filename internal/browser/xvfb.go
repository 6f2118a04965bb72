package browser

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const xvfbReadyTimeout = 5 * time.Second

// startXvfb runs an Xvfb server on cfg.XvfbDisplay and waits for its
// socket, so that headful Chrome can start on a machine without a screen.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}

	display := m.cfg.XvfbDisplay
	cmd := exec.Command("Xvfb", display, "-screen", "0", "1600x1000x24", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	if err := waitSocket(xvfbSocket(display), xvfbReadyTimeout); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}
	m.xvfb = cmd
	m.cfg.Logger.Info("browser: xvfb started", "display", display, "pid", cmd.Process.Pid)
	return nil
}

func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	m.xvfb.Process.Kill()
	m.xvfb.Wait()
	m.cfg.Logger.Info("browser: xvfb stopped", "display", m.cfg.XvfbDisplay)
	m.xvfb = nil
}

// xvfbSocket maps a display such as ":99" or ":99.0" to its X socket.
func xvfbSocket(display string) string {
	n := strings.TrimPrefix(display, ":")
	if i := strings.IndexByte(n, '.'); i >= 0 {
		n = n[:i]
	}
	return "/tmp/.X11-unix/X" + n
}

func waitSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("xvfb: %s not ready after %s", path, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
