// Package workflow contains the Temporal workflow that drives gateway tools
// on a worker host.
package workflow

import (
	"errors"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/mfateev/ptygw/internal/activities"
	"github.com/mfateev/ptygw/internal/gateway"
)

const (
	defaultActivityTimeout = 10 * time.Minute
	heartbeatTimeout       = 30 * time.Second
)

// ToolBatchInput is a list of tool calls to run on the worker.
type ToolBatchInput struct {
	Calls []activities.DispatchToolInput `json:"calls"`
	// Parallel starts every call at once. Otherwise calls run in order.
	Parallel bool `json:"parallel,omitempty"`
	// StopOnError skips the remaining calls after the first error response.
	// Ignored when Parallel is set.
	StopOnError bool `json:"stop_on_error,omitempty"`
	// ActivityTimeout bounds each call. Default: 10m.
	ActivityTimeout time.Duration `json:"activity_timeout,omitempty"`
}

// ToolBatchOutput holds one response per call that ran, in call order.
type ToolBatchOutput struct {
	Responses []gateway.Response `json:"responses"`
	Skipped   int                `json:"skipped,omitempty"`
}

// ToolBatchWorkflow runs tool calls through the DispatchTool activity.
// Activity failures become error responses; the workflow itself only fails
// when it is cancelled.
func ToolBatchWorkflow(ctx workflow.Context, input ToolBatchInput) (ToolBatchOutput, error) {
	logger := workflow.GetLogger(ctx)

	timeout := input.ActivityTimeout
	if timeout <= 0 {
		timeout = defaultActivityTimeout
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    heartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{activities.ErrTypeRejected},
		},
	})

	if input.Parallel {
		return runParallel(ctx, logger, input.Calls)
	}

	var out ToolBatchOutput
	for i, call := range input.Calls {
		logger.Info("Starting tool call", "tool", call.Name, "index", i)

		resp, err := runCall(ctx, logger, call)
		if err != nil {
			return out, err
		}
		out.Responses = append(out.Responses, resp)

		if resp.IsError && input.StopOnError {
			out.Skipped = len(input.Calls) - i - 1
			logger.Info("Stopping after failed tool call", "tool", call.Name, "skipped", out.Skipped)
			break
		}
	}
	return out, nil
}

func runParallel(ctx workflow.Context, logger log.Logger, calls []activities.DispatchToolInput) (ToolBatchOutput, error) {
	futures := make([]workflow.Future, len(calls))
	for i, call := range calls {
		logger.Info("Starting tool call", "tool", call.Name, "index", i)
		futures[i] = workflow.ExecuteActivity(ctx, "DispatchTool", call)
	}

	out := ToolBatchOutput{Responses: make([]gateway.Response, len(calls))}
	for i, f := range futures {
		var resp gateway.Response
		if err := f.Get(ctx, &resp); err != nil {
			if temporal.IsCanceledError(err) {
				return out, err
			}
			resp = activityErrorToResponse(logger, calls[i].Name, err)
		}
		out.Responses[i] = resp
	}
	return out, nil
}

func runCall(ctx workflow.Context, logger log.Logger, call activities.DispatchToolInput) (gateway.Response, error) {
	var resp gateway.Response
	err := workflow.ExecuteActivity(ctx, "DispatchTool", call).Get(ctx, &resp)
	if err == nil {
		return resp, nil
	}
	if temporal.IsCanceledError(err) {
		return resp, err
	}
	return activityErrorToResponse(logger, call.Name, err), nil
}

// activityErrorToResponse recovers the gateway response carried in an
// ApplicationError's details. Never parses the message.
func activityErrorToResponse(logger log.Logger, tool string, err error) gateway.Response {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		logger.Error("Tool activity failed with non-ApplicationError", "tool", tool, "error", err)
		return gateway.Response{Text: "Error: " + err.Error(), IsError: true}
	}

	logger.Warn("Tool activity failed",
		"tool", tool,
		"error_type", appErr.Type(),
		"non_retryable", appErr.NonRetryable())

	var resp gateway.Response
	if appErr.HasDetails() && appErr.Details(&resp) == nil && resp.IsError {
		return resp
	}
	return gateway.Response{Text: "Error: " + appErr.Message(), IsError: true}
}
