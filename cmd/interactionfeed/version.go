package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/interaction-feed/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "interactionfeed %s\n", version.String())
	},
}
