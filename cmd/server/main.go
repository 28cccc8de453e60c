// Package main initializes and starts the catalog HTTP server, setting up
// configuration, logging, credentials, token handling, storage, services
// and handlers.
package main

import (
	"cmp"
	"fmt"
	"os"

	"github.com/atinyakov/CoverCatalog/internal/config"
	"github.com/spf13/cobra"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	options := &config.Options{}

	root := &cobra.Command{
		Use:          "catalog-server",
		Short:        "Insurance product catalog API",
		Version:      fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := options.Load(); err != nil {
				return err
			}
			return run(cmd.Context(), options)
		},
	}
	options.RegisterFlags(root.Flags())

	root.AddCommand(newHashPasswordCmd())
	return root
}
