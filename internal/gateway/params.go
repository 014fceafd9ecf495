package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mfateev/ptygw/internal/ptysession"
)

// ExecParams are the pty_exec arguments. Numeric fields are optional; zero
// selects the default. An empty command is left to the policy to reject.
type ExecParams struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Cwd     string   `json:"cwd,omitempty"`
	Timeout float64  `json:"timeout,omitempty"` // milliseconds
	Cols    float64  `json:"cols,omitempty"`
	Rows    float64  `json:"rows,omitempty"`
}

// InputParam is one scripted input.
type InputParam struct {
	Wait float64 `json:"wait,omitempty"` // milliseconds, default 500
	Send string  `json:"send"`
}

// InteractiveParams are the pty_interactive arguments.
type InteractiveParams struct {
	ExecParams
	Inputs []InputParam `json:"inputs,omitempty"`
}

// DoctorParams are the claude_doctor arguments.
type DoctorParams struct {
	Timeout float64 `json:"timeout,omitempty"` // milliseconds
}

// ArgumentError reports malformed tool arguments.
type ArgumentError struct {
	Tool    string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Message)
}

func decodeArgs(tool string, raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ArgumentError{Tool: tool, Message: err.Error()}
	}
	return nil
}

func (p ExecParams) validate(tool string) error {
	for name, v := range map[string]float64{"timeout": p.Timeout, "cols": p.Cols, "rows": p.Rows} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return &ArgumentError{Tool: tool, Message: name + " must be a non-negative number"}
		}
	}
	if p.Cols > math.MaxUint16 || p.Rows > math.MaxUint16 {
		return &ArgumentError{Tool: tool, Message: "terminal size out of range"}
	}
	return nil
}

func (p ExecParams) request(defaultTimeoutMs float64) ptysession.Request {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = defaultTimeoutMs
	}
	return ptysession.Request{
		Command: p.Command,
		Args:    p.Args,
		Cwd:     p.Cwd,
		Timeout: millis(timeout),
		Cols:    uint16(p.Cols),
		Rows:    uint16(p.Rows),
	}
}

func (p InteractiveParams) validate(tool string) error {
	if err := p.ExecParams.validate(tool); err != nil {
		return err
	}
	for i, in := range p.Inputs {
		if in.Wait < 0 || math.IsNaN(in.Wait) || math.IsInf(in.Wait, 0) {
			return &ArgumentError{Tool: tool, Message: fmt.Sprintf("inputs[%d].wait must be a non-negative number", i)}
		}
	}
	return nil
}

func (p InteractiveParams) request() ptysession.Request {
	req := p.ExecParams.request(DefaultInteractiveTimeoutMs)
	for _, in := range p.Inputs {
		req.Inputs = append(req.Inputs, ptysession.Input{Wait: millis(in.Wait), Send: in.Send})
	}
	return req
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
