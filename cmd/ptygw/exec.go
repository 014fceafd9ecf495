package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfateev/ptygw/internal/cli"
	"github.com/mfateev/ptygw/internal/gateway"
)

var (
	execCwd     string
	execTimeout time.Duration
	execCols    int
	execRows    int
	execJSON    bool
	execNoColor bool

	interactiveInputs []string
	interactiveWait   time.Duration
)

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run one command through the gateway",
	Long: `Run one command through the same validation and PTY session as pty_exec.

The process exits with the command's exit code (124 on timeout).

Examples:
  ptygw exec git status
  ptygw exec --timeout 2m npm test
  ptygw exec --json ls -la`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive <command> [args...]",
	Short: "Run a command and answer its prompts",
	Long: `Run a command like pty_interactive, writing each --input in order.

Inputs are Go-quoted strings, so "\r" is Enter and "\x03" is Ctrl-C. Flags
go before the command name.

Example:
  ptygw interactive -i 'my-app\r' -i '\r' -i '\r' npm init`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInteractive,
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run claude doctor in a 120x40 terminal",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	for _, c := range []*cobra.Command{execCmd, interactiveCmd, doctorCmd} {
		c.Flags().DurationVar(&execTimeout, "timeout", 0, "session time limit (default depends on the tool)")
		c.Flags().BoolVar(&execJSON, "json", false, "print the raw response as JSON")
		c.Flags().BoolVar(&execNoColor, "no-color", false, "disable colored output")
	}
	for _, c := range []*cobra.Command{execCmd, interactiveCmd} {
		c.Flags().StringVar(&execCwd, "cwd", "", "working directory")
		c.Flags().IntVar(&execCols, "cols", 0, "terminal width (default: current terminal or 120)")
		c.Flags().IntVar(&execRows, "rows", 0, "terminal height (default: current terminal or 30)")
	}
	// Flags after the command name belong to the command.
	execCmd.Flags().SetInterspersed(false)
	interactiveCmd.Flags().SetInterspersed(false)

	interactiveCmd.Flags().StringArrayVarP(&interactiveInputs, "input", "i", nil, "input to send; repeat for each prompt")
	interactiveCmd.Flags().DurationVar(&interactiveWait, "wait", 0, "delay before each input (default 500ms)")
}

func execParams(args []string) gateway.ExecParams {
	p := gateway.ExecParams{
		Command: args[0],
		Args:    args[1:],
		Cwd:     execCwd,
		Timeout: float64(execTimeout.Milliseconds()),
		Cols:    float64(execCols),
		Rows:    float64(execRows),
	}
	if execCols == 0 || execRows == 0 {
		if t := cli.DetectTerminal(os.Stdout); t.IsTTY && t.Cols > 0 && t.Rows > 0 {
			if execCols == 0 {
				p.Cols = float64(t.Cols)
			}
			if execRows == 0 {
				p.Rows = float64(t.Rows)
			}
		}
	}
	return p
}

func runExec(cmd *cobra.Command, args []string) error {
	comps, err := initShared(cmd.Context())
	if err != nil {
		return err
	}
	defer comps.Cleanup()

	resp := comps.Gateway.Exec(cmd.Context(), execParams(args))
	return report(strings.Join(args, " "), resp)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	inputs, err := parseInputs(interactiveInputs, interactiveWait)
	if err != nil {
		return err
	}

	comps, err := initShared(cmd.Context())
	if err != nil {
		return err
	}
	defer comps.Cleanup()

	resp := comps.Gateway.Interactive(cmd.Context(), gateway.InteractiveParams{
		ExecParams: execParams(args),
		Inputs:     inputs,
	})
	return report(strings.Join(args, " "), resp)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	comps, err := initShared(cmd.Context())
	if err != nil {
		return err
	}
	defer comps.Cleanup()

	resp := comps.Gateway.Doctor(cmd.Context(), gateway.DoctorParams{
		Timeout: float64(execTimeout.Milliseconds()),
	})
	return report("claude doctor", resp)
}

// parseInputs interprets each value as the body of a Go double-quoted string.
func parseInputs(values []string, wait time.Duration) ([]gateway.InputParam, error) {
	inputs := make([]gateway.InputParam, 0, len(values))
	for i, v := range values {
		send, err := strconv.Unquote(`"` + strings.ReplaceAll(v, `"`, `\"`) + `"`)
		if err != nil {
			return nil, fmt.Errorf("input %d %q: invalid escape sequence", i+1, v)
		}
		inputs = append(inputs, gateway.InputParam{Wait: float64(wait.Milliseconds()), Send: send})
	}
	return inputs, nil
}

// report prints resp and turns a failed or non-zero result into an exit code.
func report(command string, resp gateway.Response) error {
	if execJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		t := cli.DetectTerminal(os.Stdout)
		styles := cli.DefaultStyles()
		if execNoColor || !t.IsTTY {
			styles = cli.NoColorStyles()
		}
		fmt.Print(cli.NewRenderer(t.Cols, styles).RenderResponse(command, resp))
	}

	switch {
	case resp.IsError:
		return &exitCodeError{code: 1}
	case resp.ExitCode != 0:
		return &exitCodeError{code: resp.ExitCode}
	}
	return nil
}
