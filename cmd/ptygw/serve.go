package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mfateev/ptygw/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gateway tools over MCP stdio (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := initShared(ctx)
	if err != nil {
		return err
	}
	defer comps.Cleanup()
	comps.ServeMetrics(ctx)

	srv := mcpserver.New(comps.Gateway, comps.Logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp transport: %w", err)
	}
	return nil
}
