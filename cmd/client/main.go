// CLI client that runs gateway tools on a remote ptygw worker through
// Temporal.
//
// Sub-commands:
//
//	exec   <command> [args...]   Run one pty_exec call and print the result
//	batch  --file calls.json     Run a list of tool calls
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/mfateev/ptygw/internal/activities"
	"github.com/mfateev/ptygw/internal/cli"
	"github.com/mfateev/ptygw/internal/config"
	"github.com/mfateev/ptygw/internal/gateway"
	"github.com/mfateev/ptygw/internal/temporalclient"
	"github.com/mfateev/ptygw/internal/workflow"
)

var (
	hostPort  string
	namespace string
	taskQueue string

	execCwd     string
	execTimeout time.Duration

	batchFile     string
	batchParallel bool
	batchStop     bool
)

var rootCmd = &cobra.Command{
	Use:           "ptygw-client",
	Short:         "Run PTY gateway tools on a remote worker",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run one command on the worker host",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run tool calls from a JSON file",
	Long: `Run tool calls read from a JSON array of {"name": ..., "arguments": {...}}.

Example calls.json:
  [
    {"name": "pty_exec", "arguments": {"command": "git", "args": ["status"]}},
    {"name": "claude_doctor"}
  ]`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hostPort, "address", "", "Temporal server host:port (overrides envconfig)")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Temporal namespace (overrides envconfig)")
	rootCmd.PersistentFlags().StringVar(&taskQueue, "task-queue", config.DefaultTaskQueue, "worker task queue")

	execCmd.Flags().StringVar(&execCwd, "cwd", "", "working directory on the worker host")
	execCmd.Flags().DurationVar(&execTimeout, "timeout", 0, "session time limit (default 30s)")
	execCmd.Flags().SetInterspersed(false)

	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "JSON file with tool calls (required)")
	batchCmd.Flags().BoolVar(&batchParallel, "parallel", false, "run all calls at once")
	batchCmd.Flags().BoolVar(&batchStop, "stop-on-error", false, "skip remaining calls after an error")
	_ = batchCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(execCmd, batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func dialTemporal() (client.Client, error) {
	opts, err := temporalclient.LoadClientOptions(temporalclient.Overrides{
		HostPort:  hostPort,
		Namespace: namespace,
	}, nil)
	if err != nil {
		return nil, err
	}
	c, err := client.Dial(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Temporal client: %w", err)
	}
	return c, nil
}

func runBatchWorkflow(ctx context.Context, input workflow.ToolBatchInput) (workflow.ToolBatchOutput, error) {
	c, err := dialTemporal()
	if err != nil {
		return workflow.ToolBatchOutput{}, err
	}
	defer c.Close()

	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "ptygw-" + uuid.NewString(),
		TaskQueue: taskQueue,
	}, workflow.ToolBatchWorkflow, input)
	if err != nil {
		return workflow.ToolBatchOutput{}, fmt.Errorf("starting workflow: %w", err)
	}
	fmt.Fprintf(os.Stderr, "workflow %s (run %s)\n", run.GetID(), run.GetRunID())

	var out workflow.ToolBatchOutput
	if err := run.Get(ctx, &out); err != nil {
		return out, fmt.Errorf("workflow failed: %w", err)
	}
	return out, nil
}

func runExec(cmd *cobra.Command, args []string) error {
	raw, err := json.Marshal(gateway.ExecParams{
		Command: args[0],
		Args:    args[1:],
		Cwd:     execCwd,
		Timeout: float64(execTimeout.Milliseconds()),
	})
	if err != nil {
		return err
	}

	out, err := runBatchWorkflow(cmd.Context(), workflow.ToolBatchInput{
		Calls: []activities.DispatchToolInput{{Name: gateway.ToolExec, Arguments: raw}},
	})
	if err != nil {
		return err
	}
	if len(out.Responses) != 1 {
		return errors.New("workflow returned no response")
	}
	return printResponses([]string{strings.Join(args, " ")}, out.Responses)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(batchFile)
	if err != nil {
		return err
	}
	var calls []activities.DispatchToolInput
	if err := json.Unmarshal(data, &calls); err != nil {
		return fmt.Errorf("parsing %s: %w", batchFile, err)
	}

	out, err := runBatchWorkflow(cmd.Context(), workflow.ToolBatchInput{
		Calls:       calls,
		Parallel:    batchParallel,
		StopOnError: batchStop,
	})
	if err != nil {
		return err
	}

	labels := make([]string, len(out.Responses))
	for i := range labels {
		labels[i] = calls[i].Name
	}
	if out.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "%d call(s) skipped after an error\n", out.Skipped)
	}
	return printResponses(labels, out.Responses)
}

func printResponses(labels []string, responses []gateway.Response) error {
	t := cli.DetectTerminal(os.Stdout)
	styles := cli.NoColorStyles()
	if t.IsTTY {
		styles = cli.DefaultStyles()
	}
	r := cli.NewRenderer(t.Cols, styles)

	failed := false
	for i, resp := range responses {
		fmt.Print(r.RenderResponse(labels[i], resp))
		failed = failed || resp.IsError || resp.ExitCode != 0
	}
	if failed {
		return errors.New("one or more calls failed")
	}
	return nil
}
