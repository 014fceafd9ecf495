// Package mcpserver binds the gateway operations to the Model Context
// Protocol over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mfateev/ptygw/internal/gateway"
	"github.com/mfateev/ptygw/internal/version"
)

// ServerName is reported to clients during initialization.
const ServerName = "ptygw"

const instructions = "Runs whitelisted commands in a pseudo-terminal. " +
	"Commands are executed directly without a shell, so pipes, redirects and " +
	"substitutions are rejected. Use pty_interactive to answer prompts."

// Dispatcher runs a named tool. *gateway.Gateway implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, raw json.RawMessage) gateway.Response
}

// Server is an MCP server exposing the gateway tools.
type Server struct {
	mcp    *gomcp.Server
	d      Dispatcher
	logger *slog.Logger
}

// New creates a server and registers every gateway tool.
func New(d Dispatcher, logger *slog.Logger) *Server {
	s := &Server{
		mcp: gomcp.NewServer(&gomcp.Implementation{
			Name:    ServerName,
			Version: version.Version(),
		}, &gomcp.ServerOptions{Instructions: instructions}),
		d:      d,
		logger: logger,
	}

	for _, spec := range gateway.Specs() {
		s.mcp.AddTool(&gomcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema(),
		}, s.handle)
	}
	return s
}

func (s *Server) handle(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	name := req.Params.Name
	start := time.Now()

	resp := s.d.Dispatch(ctx, name, req.Params.Arguments)

	s.logger.Debug("tool call",
		"tool", name,
		"is_error", resp.IsError,
		"exit_code", resp.ExitCode,
		"elapsed", time.Since(start))

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: resp.Text}},
		IsError: resp.IsError,
	}, nil
}

// Run serves on stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("PTY gateway running on stdio", "version", version.Version())
	return s.Serve(ctx, &gomcp.StdioTransport{})
}

// Serve serves on an arbitrary transport.
func (s *Server) Serve(ctx context.Context, t gomcp.Transport) error {
	return s.mcp.Run(ctx, t)
}
