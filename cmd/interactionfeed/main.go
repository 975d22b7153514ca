// Command interactionfeed watches or serves a live feed of in-store
// interaction events.
//
//	interactionfeed serve --config configs/feed.example.yaml
//	interactionfeed watch --url ws://localhost:8000/ws
//	interactionfeed aggregate --config configs/feed.example.yaml -W 4
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "interactionfeed",
	Short:         "Stream and display live interaction events",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (defaults apply when empty)")
	rootCmd.AddCommand(watchCmd, serveCmd, aggregateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
