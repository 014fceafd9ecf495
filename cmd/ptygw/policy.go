package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfateev/ptygw/internal/cli"
	"github.com/mfateev/ptygw/internal/command_safety"
)

var policyCmd = &cobra.Command{
	Use:   "policy [command [args...]]",
	Short: "Show the effective policy, or check a command against it",
	Long: `With no arguments, print the whitelist and forbidden patterns in effect.

With a command, validate it without running it and report how it would be
classified.

Examples:
  ptygw policy
  ptygw policy git push --force origin main`,
	RunE: runPolicy,
}

func init() {
	policyCmd.Flags().SetInterspersed(false)
}

func runPolicy(cmd *cobra.Command, args []string) error {
	comps, err := initShared(cmd.Context())
	if err != nil {
		return err
	}
	defer comps.Cleanup()

	t := cli.DetectTerminal(os.Stdout)
	styles := cli.NoColorStyles()
	if t.IsTTY {
		styles = cli.DefaultStyles()
	}
	r := cli.NewRenderer(t.Cols, styles)

	if len(args) == 0 {
		fmt.Print(r.RenderPolicy(comps.Policy))
		return nil
	}

	v, err := comps.Policy.Validate(args[0], args[1:], "")
	if err != nil {
		fmt.Printf("rejected: %v\n", err)
		return &exitCodeError{code: 2}
	}
	fmt.Printf("allowed: %s\n", command_safety.Classify(v.Argv()))
	return nil
}
