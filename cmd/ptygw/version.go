package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfateev/ptygw/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("ptygw %s\n", version.Version())
	},
}
