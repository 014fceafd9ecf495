// Package activities exposes the gateway operations as Temporal activities.
//
// Each activity runs one PTY session on the worker host and returns the same
// gateway.Response an MCP client would see. A heartbeat is recorded while
// the session runs so long interactive sessions are not mistaken for a dead
// worker.
package activities

import (
	"context"
	"encoding/json"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/mfateev/ptygw/internal/gateway"
)

const (
	// ErrTypeRejected marks failures that will not succeed on retry.
	ErrTypeRejected = "PtyGatewayRejected"
	// ErrTypeFailed marks failures that may succeed on retry.
	ErrTypeFailed = "PtyGatewayFailed"

	defaultHeartbeatInterval = 10 * time.Second
)

// Operations is the part of *gateway.Gateway the activities call.
type Operations interface {
	Exec(ctx context.Context, p gateway.ExecParams) gateway.Response
	Interactive(ctx context.Context, p gateway.InteractiveParams) gateway.Response
	Doctor(ctx context.Context, p gateway.DoctorParams) gateway.Response
	Dispatch(ctx context.Context, name string, raw json.RawMessage) gateway.Response
}

// PtyExecInput is the input for PtyExec.
type PtyExecInput struct {
	gateway.ExecParams
	// FailOnError turns an error response into an activity failure.
	FailOnError bool `json:"fail_on_error,omitempty"`
}

// PtyInteractiveInput is the input for PtyInteractive.
type PtyInteractiveInput struct {
	gateway.InteractiveParams
	FailOnError bool `json:"fail_on_error,omitempty"`
}

// ClaudeDoctorInput is the input for ClaudeDoctor.
type ClaudeDoctorInput struct {
	gateway.DoctorParams
	FailOnError bool `json:"fail_on_error,omitempty"`
}

// DispatchToolInput names a tool and carries its raw JSON arguments.
type DispatchToolInput struct {
	Name        string          `json:"name"`
	Arguments   json.RawMessage `json:"arguments,omitempty"`
	FailOnError bool            `json:"fail_on_error,omitempty"`
}

// GatewayActivities contains the PTY gateway activities.
type GatewayActivities struct {
	ops Operations
}

// NewGatewayActivities creates a new GatewayActivities instance.
func NewGatewayActivities(ops Operations) *GatewayActivities {
	return &GatewayActivities{ops: ops}
}

// PtyExec runs a single command.
func (a *GatewayActivities) PtyExec(ctx context.Context, input PtyExecInput) (gateway.Response, error) {
	resp := withHeartbeat(ctx, func() gateway.Response {
		return a.ops.Exec(ctx, input.ExecParams)
	})
	return respond(resp, input.FailOnError)
}

// PtyInteractive runs a command with scripted inputs.
func (a *GatewayActivities) PtyInteractive(ctx context.Context, input PtyInteractiveInput) (gateway.Response, error) {
	resp := withHeartbeat(ctx, func() gateway.Response {
		return a.ops.Interactive(ctx, input.InteractiveParams)
	})
	return respond(resp, input.FailOnError)
}

// ClaudeDoctor runs the claude doctor diagnostic.
func (a *GatewayActivities) ClaudeDoctor(ctx context.Context, input ClaudeDoctorInput) (gateway.Response, error) {
	resp := withHeartbeat(ctx, func() gateway.Response {
		return a.ops.Doctor(ctx, input.DoctorParams)
	})
	return respond(resp, input.FailOnError)
}

// DispatchTool runs a tool by name, the same way an MCP tools/call does.
func (a *GatewayActivities) DispatchTool(ctx context.Context, input DispatchToolInput) (gateway.Response, error) {
	resp := withHeartbeat(ctx, func() gateway.Response {
		return a.ops.Dispatch(ctx, input.Name, input.Arguments)
	})
	return respond(resp, input.FailOnError)
}

// withHeartbeat runs fn while recording heartbeats at half the configured
// heartbeat timeout.
func withHeartbeat(ctx context.Context, fn func() gateway.Response) gateway.Response {
	interval := defaultHeartbeatInterval
	if hb := activity.GetInfo(ctx).HeartbeatTimeout; hb > 0 {
		interval = hb / 2
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, "running")
			case <-done:
				return
			}
		}
	}()

	return fn()
}

func respond(resp gateway.Response, failOnError bool) (gateway.Response, error) {
	if !resp.IsError || !failOnError {
		return resp, nil
	}
	if retryable(resp.ErrorKind) {
		return gateway.Response{}, temporal.NewApplicationError(resp.Text, ErrTypeFailed, resp)
	}
	return gateway.Response{}, temporal.NewNonRetryableApplicationError(resp.Text, ErrTypeRejected, nil, resp)
}

// Spawn and admission failures depend on host state; everything else is a
// property of the request.
func retryable(kind string) bool {
	return kind == "spawn" || kind == "admission"
}
