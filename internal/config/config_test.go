package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ESSAY_HOME",
	"ESSAY_LOG_LEVEL",
	"ESSAY_PYTHON",
	"ESSAY_CLAUDE_BIN",
	"ESSAY_SEND_COMMAND",
	"ESSAY_DEFAULT_LANG",
	"ESSAY_HTTP_ADDR",
	"ESSAY_HISTORY_KEEP",
	"ESSAY_SHUTDOWN_GRACE",
}

// isolateEnv unsets every ESSAY_* key for the duration of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.StateDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "claude", cfg.Command.ClaudeBin)
	assert.Equal(t, "auto", cfg.Command.DefaultLang)
	assert.Empty(t, cfg.Command.SendCommand)
	assert.NotEmpty(t, cfg.Command.Python)
	assert.Equal(t, "127.0.0.1:7071", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, 200, cfg.HistoryKeep)
}

func TestLoadConfigFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
log:
  level: debug
command:
  send_command: /usr/local/bin/send-essay
  default_lang: ja
server:
  addr: 127.0.0.1:9000
  shutdown_grace: 10s
history_keep: 50
`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/usr/local/bin/send-essay", cfg.Command.SendCommand)
	assert.Equal(t, "ja", cfg.Command.DefaultLang)
	assert.Equal(t, "claude", cfg.Command.ClaudeBin)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownGrace)
	assert.Equal(t, 50, cfg.HistoryKeep)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\nhistory_keep: 50\n"), 0o644))
	t.Setenv("ESSAY_LOG_LEVEL", "warn")
	t.Setenv("ESSAY_HISTORY_KEEP", "7")
	t.Setenv("ESSAY_SHUTDOWN_GRACE", "250ms")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.HistoryKeep)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.ShutdownGrace)
}

func TestLoadDotEnvInStateDir(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ESSAY_CLAUDE_BIN=/opt/claude/bin/claude\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/opt/claude/bin/claude", cfg.Command.ClaudeBin)
}

func TestLoadStateDirFromEnv(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	t.Setenv("ESSAY_HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.StateDir)
	assert.Equal(t, filepath.Join(dir, "schedules.json"), cfg.Paths().SchedulesFile())
}

func TestLoadNormalizes(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("history_keep: 0\ncommand:\n  default_lang: \"\"\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.HistoryKeep)
	assert.Equal(t, "auto", cfg.Command.DefaultLang)
}

func TestLoadInvalidYAML(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
