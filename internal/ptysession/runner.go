// Package ptysession runs one validated command attached to a pseudo-terminal
// and turns it into exactly one Result.
//
// A session races three things: the process exiting, the timeout firing and
// the scripted-input queue. Output is accumulated in arrival order for the
// whole life of the session and sanitized once at the end. Whichever of
// exit and timeout comes first resolves the session; after that no input is
// written and the transcript is frozen.
package ptysession

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mfateev/ptygw/internal/execenv"
	"github.com/mfateev/ptygw/internal/output"
	"github.com/mfateev/ptygw/internal/policy"
	"github.com/mfateev/ptygw/internal/sandbox"
)

// defaultDrainGrace bounds how long output is collected after exit.
const defaultDrainGrace = 250 * time.Millisecond

// Runner spawns sessions. It holds only immutable configuration and is safe
// for concurrent use.
type Runner struct {
	policy       *policy.Policy
	env          []string
	defaultDir   string
	initialDelay time.Duration
	drainGrace   time.Duration
	maxOutput    int
	wrapper      sandbox.Wrapper
	logger       *slog.Logger
	tracer       trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithEnv sets the full child environment. Defaults to the process
// environment plus execenv.TerminalVars.
func WithEnv(env []string) Option {
	return func(r *Runner) { r.env = env }
}

// WithDefaultDir sets the working directory used when a request has none.
// Defaults to the policy's home directory.
func WithDefaultDir(dir string) Option {
	return func(r *Runner) {
		if dir != "" {
			r.defaultDir = dir
		}
	}
}

// WithInitialDelay sets the pause between spawn and the first scripted input.
func WithInitialDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.initialDelay = d
		}
	}
}

// WithDrainGrace bounds output collection after the process exits.
func WithDrainGrace(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.drainGrace = d
		}
	}
}

// WithMaxOutputBytes caps the cleaned transcript. Zero disables the cap.
func WithMaxOutputBytes(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxOutput = n
		}
	}
}

// WithSandbox wraps every spawned argv.
func WithSandbox(w sandbox.Wrapper) Option {
	return func(r *Runner) {
		if w != nil {
			r.wrapper = w
		}
	}
}

// WithLogger sets the logger for spawn and outcome events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracer sets the tracer that spans each Run.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewRunner creates a Runner that validates every request against p.
func NewRunner(p *policy.Policy, opts ...Option) *Runner {
	r := &Runner{
		policy:       p,
		defaultDir:   p.HomeDir(),
		initialDelay: DefaultInitialDelay,
		drainGrace:   defaultDrainGrace,
		maxOutput:    output.DefaultMaxBytes,
		wrapper:      sandbox.Passthrough{},
		logger:       slog.New(slog.NewTextHandler(os.Stderr, nil)),
		tracer:       noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.env == nil {
		r.env = execenv.Policy{}.FromProcess()
	}
	return r
}

// Policy returns the validation policy.
func (r *Runner) Policy() *policy.Policy {
	return r.policy
}

// Run validates req, spawns it on a PTY and blocks until it resolves.
//
// Validation failures are returned as *policy.ValidationError and start
// failures as *SpawnError; in both cases nothing ran. A timeout is not an
// error: the Result carries exit code 124 and ReasonTimeout.
//
// Cancelling ctx does not stop the session. The timeout is the only way a
// session ends early.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	req = req.withDefaults()

	v, err := r.policy.Validate(req.Command, req.Args, req.Cwd)
	if err != nil {
		r.logger.Warn("command rejected", "command", req.Command, "error", err)
		return nil, err
	}

	dir := v.Cwd
	if dir == "" {
		dir = r.defaultDir
	}

	id := uuid.NewString()
	_, span := r.tracer.Start(ctx, "ptysession.run",
		trace.WithAttributes(
			attribute.String("session.id", id),
			attribute.String("command", v.Program),
			attribute.Int("args", len(v.Args)),
			attribute.Int("inputs", len(req.Inputs)),
		))
	defer span.End()

	argv, err := r.wrapper.Wrap(v.Argv(), dir)
	if err != nil {
		return nil, r.spawnFailed(span, req.Command, err)
	}

	start := time.Now()
	s, err := startSession(argv, dir, r.env, req.Cols, req.Rows, r.rawCap())
	if err != nil {
		return nil, r.spawnFailed(span, req.Command, err)
	}
	r.logger.Debug("session started",
		"session_id", id,
		"command", v.Program,
		"cwd", dir,
		"pid", s.cmd.Process.Pid,
		"sandbox", r.wrapper.Name())

	out := s.await(req.Timeout, req.Inputs, r.initialDelay, r.drainGrace)
	res := r.buildResult(id, out, time.Since(start))

	span.SetAttributes(
		attribute.Int("exit_code", res.ExitCode),
		attribute.String("reason", string(res.Reason)),
		attribute.Bool("truncated", res.Truncated),
	)
	r.logger.Info("session finished",
		"session_id", id,
		"command", v.Program,
		"exit_code", res.ExitCode,
		"reason", res.Reason,
		"duration", res.Duration)

	return res, nil
}

func (r *Runner) spawnFailed(span trace.Span, command string, cause error) error {
	err := &SpawnError{Command: command, Cause: cause}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.logger.Error("spawn failed", "command", command, "error", cause)
	return err
}

// rawCap bounds the uncleaned transcript. Escape sequences inflate raw
// output, so it is allowed to exceed the cleaned cap.
func (r *Runner) rawCap() int {
	if r.maxOutput <= 0 {
		return 0
	}
	return r.maxOutput * 4
}

func (r *Runner) buildResult(id string, out outcome, elapsed time.Duration) *Result {
	text, truncated := output.Limit(output.Clean(out.raw), r.maxOutput)
	truncated = truncated || out.overflow
	if truncated {
		text += fmt.Sprintf("\n[OUTPUT TRUNCATED: exceeded %d bytes]", r.maxOutput)
	}
	if out.reason == ReasonTimeout {
		text += TimeoutMarker
	}

	return &Result{
		SessionID: id,
		Output:    text,
		ExitCode:  out.exitCode,
		Reason:    out.reason,
		Truncated: truncated,
		Duration:  elapsed,
	}
}
