// Package app wires the configured components into a ready Gateway. Both
// the CLI and the Temporal worker start from here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfateev/ptygw/internal/config"
	"github.com/mfateev/ptygw/internal/gateway"
	"github.com/mfateev/ptygw/internal/observability"
	"github.com/mfateev/ptygw/internal/policy"
	"github.com/mfateev/ptygw/internal/ptysession"
	"github.com/mfateev/ptygw/internal/sandbox"
)

// Components holds everything built from one Config. Call Cleanup when done.
type Components struct {
	Config  *config.Config
	Logger  *slog.Logger
	Policy  *policy.Policy
	Sandbox sandbox.Wrapper
	Runner  *ptysession.Runner
	Gateway *gateway.Gateway
	Obs     *observability.Observability

	cleanups []func()
}

// Cleanup runs all deferred cleanup functions in reverse order.
func (c *Components) Cleanup() {
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}
}

func (c *Components) addCleanup(fn func()) {
	c.cleanups = append(c.cleanups, fn)
}

// Build initializes the components described by cfg. On error nothing needs
// cleaning up.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Components, err error) {
	c := &Components{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Cleanup()
		}
	}()

	// Policy.
	opts := []policy.Option{
		policy.WithHomeDir(cfg.ResolvedHomeDir()),
		policy.WithRestrictCwdToHome(cfg.RestrictCwdToHome),
		policy.WithDenyDestructive(cfg.DenyDestructive),
	}
	if cfg.PolicyFile != "" {
		ext, err := policy.LoadExtensions(cfg.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("loading policy file: %w", err)
		}
		opts = append(opts, policy.WithExtensions(ext))
		logger.Debug("policy extensions loaded", slog.String("path", cfg.PolicyFile))
	}
	c.Policy = policy.New(opts...)

	// Sandbox.
	c.Sandbox, err = sandbox.New(cfg.Sandbox)
	if err != nil {
		return nil, fmt.Errorf("initializing sandbox: %w", err)
	}

	// Observability.
	c.Obs, err = observability.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.addCleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Obs.Shutdown(shutdownCtx)
	})

	c.Runner = ptysession.NewRunner(c.Policy,
		ptysession.WithEnv(cfg.Env.FromProcess()),
		ptysession.WithDefaultDir(cfg.ResolvedDefaultCwd()),
		ptysession.WithInitialDelay(cfg.InitialInputDelay),
		ptysession.WithMaxOutputBytes(cfg.MaxOutputBytes),
		ptysession.WithSandbox(c.Sandbox),
		ptysession.WithLogger(logger),
		ptysession.WithTracer(c.Obs.Tracer()),
	)

	c.Gateway = gateway.New(c.Runner,
		gateway.WithMaxConcurrent(cfg.MaxConcurrentSessions),
		gateway.WithMetrics(c.Obs.MetricsOrNil()),
		gateway.WithTracer(c.Obs.Tracer()),
		gateway.WithLogger(logger),
	)

	logger.Info("gateway initialized",
		slog.String("home", c.Policy.HomeDir()),
		slog.Int("allowed_commands", len(c.Policy.AllowedCommands())),
		slog.String("sandbox", c.Sandbox.Name()),
		slog.Int("max_concurrent_sessions", cfg.MaxConcurrentSessions),
		slog.Bool("tracing", cfg.Tracing.Enabled))
	return c, nil
}

// ServeMetrics starts the /metrics endpoint in the background when
// metrics_addr is set. It stops with ctx.
func (c *Components) ServeMetrics(ctx context.Context) {
	addr := c.Config.MetricsAddr
	if addr == "" || c.Obs.MetricsOrNil() == nil {
		return
	}
	go func() {
		if err := c.Obs.Metrics.Serve(ctx, addr, c.Logger); err != nil {
			c.Logger.Error("metrics server failed", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
}
