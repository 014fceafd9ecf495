// ptygw runs whitelisted commands in a pseudo-terminal and exposes them as
// MCP tools over stdio.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	homeDir    string
)

var rootCmd = &cobra.Command{
	Use:   "ptygw",
	Short: "PTY command gateway for AI agents",
	Long: `ptygw executes commands from a fixed whitelist inside a pseudo-terminal,
so tools that need a TTY (progress bars, prompts, colored output) behave as
they would for a person. Commands run directly without a shell.

With no subcommand it serves the pty_exec, pty_interactive and claude_doctor
tools over MCP on stdin/stdout.`,
	RunE:          runServe, // Default to serve mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory working directories must stay under")

	rootCmd.AddCommand(serveCmd, execCmd, interactiveCmd, doctorCmd, policyCmd, versionCmd)
}

// exitCodeError carries a process exit status out of a command.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
