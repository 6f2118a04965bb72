package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/repli"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\nclipboard: system\n"), 0o644))

	require.NoError(t, rootCmd.ParseFlags([]string{"--config", path, "--settings-db", filepath.Join(dir, "s.db")}))
	t.Cleanup(func() { rootCmd.ParseFlags([]string{"--config=", "--settings-db="}) })

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, repli.ClipboardSystem, cfg.Clipboard)
	require.Equal(t, filepath.Join(dir, "s.db"), cfg.Settings.Path)
}

func TestSettingsCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "settings.db")

	_, err := execute(t, "settings", "set", "api-key", "sk-cli-5678", "--settings-db", db)
	require.NoError(t, err)
	_, err = execute(t, "settings", "set", "colour", "blue", "--settings-db", db)
	require.Error(t, err)

	out, err := execute(t, "settings", "get", "--settings-db", db)
	require.NoError(t, err)
	require.Contains(t, out, "********5678")
	require.NotContains(t, out, "sk-cli")
}

func TestInspectCommand(t *testing.T) {
	page := filepath.Join(t.TempDir(), "post.html")
	require.NoError(t, os.WriteFile(page, []byte(`<html><body>
<div class="feed-shared-update-v2">
  <span class="update-components-actor__name"><span><span>Grace</span></span></span>
  <div class="feed-shared-update-v2__description-wrapper"><span>Ship it</span></div>
  <div class="comments-comment-box"><div class="toolbar">
    <div><div><div><svg data-test-icon="emoji-medium"></svg></div></div></div>
    <div class="ql-editor" role="textbox"></div>
  </div></div>
</div>
</body></html>`), 0o644))

	out, err := execute(t, "inspect", page, "--site", "linkedin")
	require.NoError(t, err)
	var findings []repli.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &findings))
	require.Len(t, findings, 1)
	require.True(t, findings[0].Qualifies)
	require.Equal(t, "Grace", findings[0].Author)
	require.Equal(t, "Ship it", findings[0].Post)

	_, err = execute(t, "inspect", page, "--site", "myspace")
	require.Error(t, err)
}
