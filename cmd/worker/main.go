// Worker executable for ptygw
//
// This starts a Temporal worker that runs the tool batch workflow and the PTY
// gateway activities on this host.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/mfateev/ptygw/internal/activities"
	"github.com/mfateev/ptygw/internal/app"
	"github.com/mfateev/ptygw/internal/config"
	"github.com/mfateev/ptygw/internal/temporalclient"
	"github.com/mfateev/ptygw/internal/version"
	"github.com/mfateev/ptygw/internal/workflow"
)

var (
	configPath string
	hostPort   string
	namespace  string
	taskQueue  string
)

var rootCmd = &cobra.Command{
	Use:           "ptygw-worker",
	Short:         "Run PTY gateway activities for Temporal workflows",
	RunE:          runWorker,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config")
	rootCmd.Flags().StringVar(&hostPort, "address", "", "Temporal server host:port (overrides envconfig)")
	rootCmd.Flags().StringVar(&namespace, "namespace", "", "Temporal namespace (overrides envconfig)")
	rootCmd.Flags().StringVar(&taskQueue, "task-queue", "", "task queue (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if taskQueue != "" {
		cfg.TaskQueue = taskQueue
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Cleanup()
	comps.ServeMetrics(ctx)

	opts, err := temporalclient.LoadClientOptions(temporalclient.Overrides{
		HostPort:  hostPort,
		Namespace: namespace,
	}, logger)
	if err != nil {
		return err
	}

	c, err := client.Dial(opts)
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: activitySlots(cfg),
	})

	w.RegisterWorkflow(workflow.ToolBatchWorkflow)

	gatewayActivities := activities.NewGatewayActivities(comps.Gateway)
	w.RegisterActivity(gatewayActivities.PtyExec)
	w.RegisterActivity(gatewayActivities.PtyInteractive)
	w.RegisterActivity(gatewayActivities.ClaudeDoctor)
	w.RegisterActivity(gatewayActivities.DispatchTool)

	logger.Info("starting worker",
		slog.String("version", version.Version()),
		slog.String("task_queue", cfg.TaskQueue),
		slog.String("temporal", opts.HostPort))

	if err := w.Run(interruptCh(ctx)); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	logger.Info("worker stopped")
	return nil
}

// activitySlots matches the worker's concurrency to the session limit so
// activities do not queue inside the gateway. Zero keeps the SDK default.
func activitySlots(cfg *config.Config) int {
	if cfg.MaxConcurrentSessions <= 0 {
		return 0
	}
	return cfg.MaxConcurrentSessions
}

func interruptCh(ctx context.Context) <-chan interface{} {
	ch := make(chan interface{}, 1)
	go func() {
		<-ctx.Done()
		ch <- struct{}{}
	}()
	return ch
}
