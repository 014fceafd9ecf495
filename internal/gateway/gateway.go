// Package gateway exposes the PTY runner as three named operations and
// shapes every outcome, including failures, into a textual Response.
//
// Nothing returned from an operation is a Go error: transports forward the
// Response as-is and only set their error flag from Response.IsError.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/semaphore"

	"github.com/mfateev/ptygw/internal/observability"
	"github.com/mfateev/ptygw/internal/policy"
	"github.com/mfateev/ptygw/internal/ptysession"
)

// ErrUnknownTool is reported by Dispatch for names it does not serve.
var ErrUnknownTool = errors.New("unknown tool")

// Response is the outcome of one operation.
type Response struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error,omitempty"`
	// ErrorKind classifies a failed call: a policy.Kind name, "spawn",
	// "admission", "arguments" or "unknown_tool".
	ErrorKind string `json:"error_kind,omitempty"`

	// Populated when a session ran.
	ExitCode  int               `json:"exit_code"`
	Output    string            `json:"output,omitempty"`
	Reason    ptysession.Reason `json:"reason,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	Truncated bool              `json:"truncated,omitempty"`
}

// Runner is the part of *ptysession.Runner the gateway needs.
type Runner interface {
	Run(ctx context.Context, req ptysession.Request) (*ptysession.Result, error)
}

// Gateway serves the tool operations.
type Gateway struct {
	runner  Runner
	sem     *semaphore.Weighted
	metrics *observability.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMaxConcurrent bounds simultaneous sessions. Zero means unbounded.
func WithMaxConcurrent(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.sem = semaphore.NewWeighted(int64(n))
		} else {
			g.sem = nil
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) {
		if t != nil {
			g.tracer = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Gateway around runner.
func New(runner Runner, opts ...Option) *Gateway {
	g := &Gateway{
		runner: runner,
		tracer: noop.NewTracerProvider().Tracer(""),
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Exec runs a single command (pty_exec).
func (g *Gateway) Exec(ctx context.Context, p ExecParams) Response {
	if err := p.validate(ToolExec); err != nil {
		return g.fail(ctx, ToolExec, err)
	}
	return g.run(ctx, ToolExec, p.request(DefaultExecTimeoutMs), formatExec)
}

// Interactive runs a command and feeds it scripted inputs (pty_interactive).
func (g *Gateway) Interactive(ctx context.Context, p InteractiveParams) Response {
	if err := p.validate(ToolInteractive); err != nil {
		return g.fail(ctx, ToolInteractive, err)
	}
	return g.run(ctx, ToolInteractive, p.request(), formatExec)
}

// Doctor runs `claude doctor` on a 120x40 terminal (claude_doctor).
func (g *Gateway) Doctor(ctx context.Context, p DoctorParams) Response {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultDoctorTimeoutMs
	}
	req := ptysession.Request{
		Command: "claude",
		Args:    []string{"doctor"},
		Timeout: millis(timeout),
		Cols:    120,
		Rows:    40,
	}
	return g.run(ctx, ToolClaudeDoctor, req, formatDoctor)
}

// Dispatch decodes raw arguments for the named tool and runs it.
func (g *Gateway) Dispatch(ctx context.Context, name string, raw json.RawMessage) Response {
	switch name {
	case ToolExec:
		var p ExecParams
		if err := decodeArgs(name, raw, &p); err != nil {
			return g.fail(ctx, name, err)
		}
		return g.Exec(ctx, p)
	case ToolInteractive:
		var p InteractiveParams
		if err := decodeArgs(name, raw, &p); err != nil {
			return g.fail(ctx, name, err)
		}
		return g.Interactive(ctx, p)
	case ToolClaudeDoctor:
		var p DoctorParams
		if err := decodeArgs(name, raw, &p); err != nil {
			return g.fail(ctx, name, err)
		}
		return g.Doctor(ctx, p)
	default:
		g.count(name, "unknown_tool")
		g.logger.Warn("tool call failed", "tool", name, "error", ErrUnknownTool)
		return Response{Text: "Unknown tool: " + name, IsError: true, ErrorKind: "unknown_tool"}
	}
}

func (g *Gateway) run(ctx context.Context, tool string, req ptysession.Request, format func(*ptysession.Result) string) Response {
	ctx, span := g.tracer.Start(ctx, "gateway."+tool,
		trace.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("command", req.Command),
		))
	defer span.End()

	start := time.Now()
	release, err := g.admit(ctx)
	if err != nil {
		return g.fail(ctx, tool, err)
	}
	defer release()

	res, err := g.runner.Run(ctx, req)
	if g.metrics != nil {
		g.metrics.RequestDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return g.fail(ctx, tool, err)
	}

	span.SetAttributes(attribute.Int("exit_code", res.ExitCode), attribute.String("reason", string(res.Reason)))
	g.count(tool, status(res))

	return Response{
		Text:      format(res),
		ExitCode:  res.ExitCode,
		Output:    res.Output,
		Reason:    res.Reason,
		SessionID: res.SessionID,
		Duration:  res.Duration,
		Truncated: res.Truncated,
	}
}

// admit reserves a session slot. Waiting requests block until a slot frees
// up or ctx is done.
func (g *Gateway) admit(ctx context.Context) (func(), error) {
	if g.sem == nil {
		g.active(1)
		return func() { g.active(-1) }, nil
	}

	if g.metrics != nil {
		g.metrics.AdmissionWaiting.Inc()
	}
	err := g.sem.Acquire(ctx, 1)
	if g.metrics != nil {
		g.metrics.AdmissionWaiting.Dec()
	}
	if err != nil {
		return nil, fmt.Errorf("no session slot available: %w", err)
	}

	g.active(1)
	return func() {
		g.active(-1)
		g.sem.Release(1)
	}, nil
}

func (g *Gateway) active(delta float64) {
	if g.metrics != nil {
		g.metrics.ActiveSessions.Add(delta)
	}
}

func (g *Gateway) fail(ctx context.Context, tool string, err error) Response {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	kind := errorKind(err)
	var ve *policy.ValidationError
	switch {
	case errors.As(err, &ve):
		g.count(tool, "rejected")
		if g.metrics != nil {
			g.metrics.RejectionsTotal.WithLabelValues(kind).Inc()
		}
	default:
		g.count(tool, "error")
	}
	g.logger.Warn("tool call failed", "tool", tool, "kind", kind, "error", err)

	return Response{Text: "Error: " + err.Error(), IsError: true, ErrorKind: kind}
}

func errorKind(err error) string {
	var (
		ve *policy.ValidationError
		se *ptysession.SpawnError
		ae *ArgumentError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Kind.String()
	case errors.As(err, &se):
		return "spawn"
	case errors.As(err, &ae):
		return "arguments"
	default:
		return "admission"
	}
}

func (g *Gateway) count(tool, status string) {
	if g.metrics != nil {
		g.metrics.RequestsTotal.WithLabelValues(tool, status).Inc()
	}
}

func status(res *ptysession.Result) string {
	switch {
	case res.TimedOut():
		return "timeout"
	case res.ExitCode != 0:
		return "nonzero_exit"
	default:
		return "ok"
	}
}

func formatExec(res *ptysession.Result) string {
	return fmt.Sprintf("Exit Code: %d\n\n%s", res.ExitCode, res.Output)
}

func formatDoctor(res *ptysession.Result) string {
	return fmt.Sprintf("Claude Doctor Results:\n\n%s\n\nExit Code: %d", res.Output, res.ExitCode)
}
