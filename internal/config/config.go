// Package config loads the gateway configuration from an optional YAML file
// and PTYGW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mfateev/ptygw/internal/execenv"
	"github.com/mfateev/ptygw/internal/output"
	"github.com/mfateev/ptygw/internal/sandbox"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PTYGW_"

// Defaults.
const (
	DefaultMaxConcurrentSessions = 16
	DefaultTaskQueue             = "ptygw"
	DefaultLogLevel              = "info"
)

// Config is the root configuration.
type Config struct {
	HomeDir    string `yaml:"home_dir"`    // Default: $HOME.
	DefaultCwd string `yaml:"default_cwd"` // Default: home_dir.
	PolicyFile string `yaml:"policy_file"` // Starlark policy extensions. Optional.

	RestrictCwdToHome bool `yaml:"restrict_cwd_to_home"`
	DenyDestructive   bool `yaml:"deny_destructive"`

	MaxConcurrentSessions int           `yaml:"max_concurrent_sessions"` // 0 = unbounded.
	MaxOutputBytes        int           `yaml:"max_output_bytes"`        // 0 = uncapped.
	InitialInputDelay     time.Duration `yaml:"initial_input_delay"`

	LogLevel    string `yaml:"log_level"`    // debug, info, warn, error.
	MetricsAddr string `yaml:"metrics_addr"` // e.g. ":9464". Empty disables the endpoint.
	TaskQueue   string `yaml:"task_queue"`

	Tracing TracingConfig  `yaml:"tracing"`
	Sandbox sandbox.Policy `yaml:"sandbox"`
	Env     execenv.Policy `yaml:"env"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP endpoint, e.g. "localhost:4318"
	Protocol    string  `yaml:"protocol"` // "grpc" or "http". Default: "http"
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"` // 0.0–1.0. Default: 1.0
	Insecure    bool    `yaml:"insecure"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MaxConcurrentSessions: DefaultMaxConcurrentSessions,
		MaxOutputBytes:        output.DefaultMaxBytes,
		InitialInputDelay:     time.Second,
		LogLevel:              DefaultLogLevel,
		TaskQueue:             DefaultTaskQueue,
		Sandbox:               sandbox.Policy{Mode: sandbox.ModeOff},
		Env:                   execenv.Policy{Inherit: execenv.InheritAll},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		resolved, err := resolvePath(path)
		if err != nil {
			return nil, fmt.Errorf("resolving config path %s: %w", path, err)
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", resolved, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PTYGW_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("HOME_DIR", &c.HomeDir)
	str("DEFAULT_CWD", &c.DefaultCwd)
	str("POLICY_FILE", &c.PolicyFile)
	boolean("RESTRICT_CWD_TO_HOME", &c.RestrictCwdToHome)
	boolean("DENY_DESTRUCTIVE", &c.DenyDestructive)
	integer("MAX_CONCURRENT_SESSIONS", &c.MaxConcurrentSessions)
	integer("MAX_OUTPUT_BYTES", &c.MaxOutputBytes)
	if v, ok := lookup(EnvPrefix + "INITIAL_INPUT_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sINITIAL_INPUT_DELAY: %w", EnvPrefix, err))
		} else {
			c.InitialInputDelay = d
		}
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("TASK_QUEUE", &c.TaskQueue)
	boolean("TRACING_ENABLED", &c.Tracing.Enabled)
	str("TRACING_ENDPOINT", &c.Tracing.Endpoint)
	str("TRACING_PROTOCOL", &c.Tracing.Protocol)
	boolean("TRACING_INSECURE", &c.Tracing.Insecure)
	if v, ok := lookup(EnvPrefix + "SANDBOX_MODE"); ok {
		c.Sandbox.Mode = sandbox.Mode(v)
	}

	return errors.Join(errs...)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.MaxConcurrentSessions < 0 {
		return fmt.Errorf("max_concurrent_sessions must not be negative")
	}
	if c.MaxOutputBytes < 0 {
		return fmt.Errorf("max_output_bytes must not be negative")
	}
	if c.InitialInputDelay < 0 {
		return fmt.Errorf("initial_input_delay must not be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := sandbox.ParseMode(string(c.Sandbox.Mode)); err != nil {
		return err
	}
	switch c.Env.Inherit {
	case "", execenv.InheritAll, execenv.InheritCore, execenv.InheritNone:
	default:
		return fmt.Errorf("env.inherit %q is not supported (use all, core or none)", c.Env.Inherit)
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Protocol {
		case "", "http", "grpc":
		default:
			return fmt.Errorf("tracing.protocol %q is not supported (use http or grpc)", c.Tracing.Protocol)
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
		}
	}
	return nil
}

// ResolvedHomeDir returns home_dir with ~ expanded, or "" to let the policy
// fall back to $HOME.
func (c *Config) ResolvedHomeDir() string {
	if c.HomeDir == "" {
		return ""
	}
	if resolved, err := resolvePath(c.HomeDir); err == nil {
		return resolved
	}
	return c.HomeDir
}

// ResolvedDefaultCwd returns default_cwd with ~ expanded, or "".
func (c *Config) ResolvedDefaultCwd() string {
	if c.DefaultCwd == "" {
		return ""
	}
	if resolved, err := resolvePath(c.DefaultCwd); err == nil {
		return resolved
	}
	return c.DefaultCwd
}

// ParseLogLevel maps a configured level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level %q is not supported (use debug, info, warn or error)", s)
	}
}

// NewLogger returns a text logger on stderr at the configured level. Stdout
// is reserved for the MCP stdio transport.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLogLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
