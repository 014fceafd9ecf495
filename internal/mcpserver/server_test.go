package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/ptygw/internal/gateway"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls map[string]json.RawMessage
	resp  gateway.Response
}

func (d *recordingDispatcher) Dispatch(_ context.Context, name string, raw json.RawMessage) gateway.Response {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = map[string]json.RawMessage{}
	}
	d.calls[name] = raw
	return d.resp
}

// connect starts the server on an in-memory transport and returns a
// connected client session.
func connect(t *testing.T, ctx context.Context, d Dispatcher) *gomcp.ClientSession {
	t.Helper()

	srv := New(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	serverTransport, clientTransport := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.Serve(ctx, serverTransport)
	}()

	client := gomcp.NewClient(&gomcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	return session
}

func TestServer_ListTools(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := connect(t, ctx, &recordingDispatcher{})
	defer session.Close()

	res, err := session.ListTools(ctx, &gomcp.ListToolsParams{})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	assert.Equal(t, map[string]bool{
		gateway.ToolExec:         true,
		gateway.ToolInteractive:  true,
		gateway.ToolClaudeDoctor: true,
	}, names)
}

func TestServer_CallToolForwardsArguments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &recordingDispatcher{resp: gateway.Response{Text: "Exit Code: 0\n\nhello"}}
	session := connect(t, ctx, d)
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      gateway.ToolExec,
		Arguments: map[string]any{"command": "ls", "args": []string{"-la"}},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*gomcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Exit Code: 0\n\nhello", tc.Text)

	d.mu.Lock()
	raw := d.calls[gateway.ToolExec]
	d.mu.Unlock()
	var args gateway.ExecParams
	require.NoError(t, json.Unmarshal(raw, &args))
	assert.Equal(t, "ls", args.Command)
	assert.Equal(t, []string{"-la"}, args.Args)
}

func TestServer_ErrorResponseSetsFlag(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &recordingDispatcher{resp: gateway.Response{Text: "Error: Command cannot be empty", IsError: true}}
	session := connect(t, ctx, d)
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      gateway.ToolExec,
		Arguments: map[string]any{"command": ""},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	tc := result.Content[0].(*gomcp.TextContent)
	assert.Equal(t, "Error: Command cannot be empty", tc.Text)
}

func TestServer_DoctorWithoutArguments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &recordingDispatcher{resp: gateway.Response{Text: "Claude Doctor Results:\n\nok\n\nExit Code: 0"}}
	session := connect(t, ctx, d)
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{Name: gateway.ToolClaudeDoctor})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	d.mu.Lock()
	_, called := d.calls[gateway.ToolClaudeDoctor]
	d.mu.Unlock()
	assert.True(t, called)
}
