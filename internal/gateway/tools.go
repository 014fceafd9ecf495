package gateway

import "fmt"

// Tool names.
const (
	ToolExec         = "pty_exec"
	ToolInteractive  = "pty_interactive"
	ToolClaudeDoctor = "claude_doctor"
)

// Default timeouts in milliseconds.
const (
	DefaultExecTimeoutMs        = 30_000
	DefaultInteractiveTimeoutMs = 60_000
	DefaultDoctorTimeoutMs      = 60_000
)

// ToolSpec describes one operation for clients that list tools.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// ToolParameter is one top-level argument of a tool.
type ToolParameter struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Required    bool           `json:"required"`
	Items       map[string]any `json:"items,omitempty"`
}

// InputSchema renders the parameters as a JSON Schema object.
func (s ToolSpec) InputSchema() map[string]any {
	props := make(map[string]any, len(s.Parameters))
	required := []string{}
	for _, p := range s.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Items != nil {
			prop["items"] = p.Items
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var geometryParams = []ToolParameter{
	{Name: "cwd", Type: "string", Description: "Working directory"},
	{Name: "cols", Type: "number", Description: "Terminal columns (default: 120)"},
	{Name: "rows", Type: "number", Description: "Terminal rows (default: 30)"},
}

// Specs returns the three gateway tools in listing order.
func Specs() []ToolSpec {
	exec := ToolSpec{
		Name:        ToolExec,
		Description: "Execute a command in a pseudo-TTY (PTY) environment. Use this for commands that require TTY support like 'claude doctor', 'htop', 'vim --version', etc.",
		Parameters: append([]ToolParameter{
			{Name: "command", Type: "string", Description: "The command to execute", Required: true},
			{Name: "args", Type: "array", Description: "Command arguments", Items: map[string]any{"type": "string"}},
			{Name: "timeout", Type: "number", Description: "Timeout in milliseconds (default: 30000)"},
		}, geometryParams...),
	}

	interactive := ToolSpec{
		Name:        ToolInteractive,
		Description: "Execute an interactive command with predefined inputs. Use for commands that need user interaction like prompts or confirmations.",
		Parameters: append([]ToolParameter{
			{Name: "command", Type: "string", Description: "The command to execute", Required: true},
			{Name: "args", Type: "array", Description: "Command arguments", Items: map[string]any{"type": "string"}},
			{Name: "inputs", Type: "array", Description: "Sequence of inputs to send", Items: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"wait": map[string]any{"type": "number", "description": "Wait time before sending input (ms)"},
					"send": map[string]any{"type": "string", "description": "Input to send (use \\r for Enter)"},
				},
				"required": []string{"send"},
			}},
			{Name: "timeout", Type: "number", Description: "Timeout in milliseconds (default: 60000)"},
		}, geometryParams...),
	}

	doctor := ToolSpec{
		Name:        ToolClaudeDoctor,
		Description: "Run 'claude doctor' command to check Claude Code installation health. This is a convenience wrapper.",
		Parameters: []ToolParameter{
			{Name: "timeout", Type: "number", Description: "Timeout in milliseconds (default: 60000)"},
		},
	}

	return []ToolSpec{exec, interactive, doctor}
}

// SpecFor returns the spec of the named tool.
func SpecFor(name string) (ToolSpec, error) {
	for _, s := range Specs() {
		if s.Name == name {
			return s, nil
		}
	}
	return ToolSpec{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}
