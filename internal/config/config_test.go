package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/ptygw/internal/execenv"
	"github.com/mfateev/ptygw/internal/sandbox"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ptygw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxConcurrentSessions, cfg.MaxConcurrentSessions)
	assert.Equal(t, 1024*1024, cfg.MaxOutputBytes)
	assert.Equal(t, time.Second, cfg.InitialInputDelay)
	assert.Equal(t, "ptygw", cfg.TaskQueue)
	assert.False(t, cfg.Sandbox.Restricted())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
home_dir: /srv/home
policy_file: /etc/ptygw/policy.star
restrict_cwd_to_home: true
deny_destructive: true
max_concurrent_sessions: 4
max_output_bytes: 2048
initial_input_delay: 250ms
log_level: debug
metrics_addr: ":9464"
tracing:
  enabled: true
  endpoint: localhost:4318
  insecure: true
sandbox:
  mode: workspace-write
  writable_roots: [/srv/home/work]
env:
  inherit: core
  exclude: ["AWS_*"]
  set:
    EDITOR: vi
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/home", cfg.HomeDir)
	assert.Equal(t, "/etc/ptygw/policy.star", cfg.PolicyFile)
	assert.True(t, cfg.RestrictCwdToHome)
	assert.True(t, cfg.DenyDestructive)
	assert.Equal(t, 4, cfg.MaxConcurrentSessions)
	assert.Equal(t, 2048, cfg.MaxOutputBytes)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialInputDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, sandbox.ModeWorkspaceWrite, cfg.Sandbox.Mode)
	assert.Equal(t, []string{"/srv/home/work"}, cfg.Sandbox.WritableRoots)
	assert.Equal(t, execenv.InheritCore, cfg.Env.Inherit)
	assert.Equal(t, []string{"AWS_*"}, cfg.Env.Exclude)
	assert.Equal(t, "vi", cfg.Env.Set["EDITOR"])
	// Unset fields keep their defaults.
	assert.Equal(t, "ptygw", cfg.TaskQueue)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "max_concurrent_sessions: [nope"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []string{
		"max_concurrent_sessions: -1",
		"max_output_bytes: -5",
		"log_level: chatty",
		"sandbox:\n  mode: jail",
		"env:\n  inherit: some",
		"tracing:\n  enabled: true\n  protocol: carrier-pigeon",
		"tracing:\n  enabled: true\n  sample_rate: 2",
	}
	for _, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, body)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PTYGW_HOME_DIR":                "/tmp/h",
		"PTYGW_DENY_DESTRUCTIVE":        "true",
		"PTYGW_MAX_CONCURRENT_SESSIONS": "0",
		"PTYGW_INITIAL_INPUT_DELAY":     "2s",
		"PTYGW_SANDBOX_MODE":            "read-only",
		"PTYGW_TRACING_ENABLED":         "1",
		"PTYGW_LOG_LEVEL":               "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/h", cfg.HomeDir)
	assert.True(t, cfg.DenyDestructive)
	assert.Equal(t, 0, cfg.MaxConcurrentSessions)
	assert.Equal(t, 2*time.Second, cfg.InitialInputDelay)
	assert.Equal(t, sandbox.ModeReadOnly, cfg.Sandbox.Mode)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PTYGW_DENY_DESTRUCTIVE":        "maybe",
		"PTYGW_MAX_CONCURRENT_SESSIONS": "lots",
		"PTYGW_INITIAL_INPUT_DELAY":     "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PTYGW_DENY_DESTRUCTIVE")
	assert.Contains(t, err.Error(), "PTYGW_MAX_CONCURRENT_SESSIONS")
	assert.Contains(t, err.Error(), "PTYGW_INITIAL_INPUT_DELAY")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("PTYGW_MAX_OUTPUT_BYTES", "99")
	cfg, err := Load(writeConfig(t, "max_output_bytes: 2048"))
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.MaxOutputBytes)
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestResolvedDirs(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "", cfg.ResolvedHomeDir())
	assert.Equal(t, "", cfg.ResolvedDefaultCwd())

	cfg.HomeDir = "/srv/home"
	cfg.DefaultCwd = "/srv/home/work"
	assert.Equal(t, "/srv/home", cfg.ResolvedHomeDir())
	assert.Equal(t, "/srv/home/work", cfg.ResolvedDefaultCwd())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg.HomeDir = "~/sub"
	assert.Equal(t, filepath.Join(home, "sub"), cfg.ResolvedHomeDir())
}
