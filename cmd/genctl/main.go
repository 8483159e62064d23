// genctl is the operator CLI for the media generation service. It talks
// to the HTTP API; it never touches the database directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var apiBase string

func main() {
	root := &cobra.Command{
		Use:           "genctl",
		Short:         "Operate the media generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "addr", envOr("MEDIAGEN_ADDR", "http://localhost:8080"),
		"base URL of the mediagen API")

	root.AddCommand(
		newSubmitCommand(),
		newStatusCommand(),
		newCancelCommand(),
		newProvidersCommand(),
		newReportCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "genctl:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
