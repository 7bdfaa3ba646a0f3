package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/JulesdeCube/avalanche/pkg/telemetry"
)

var (
	// Global flags
	logLevel  string
	logFormat string

	// logger is configured before any subcommand runs.
	logger zerolog.Logger
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "avalanche",
		Short: "Avalanche - declarative host inventory resolution",
		Long: `Avalanche resolves declarative host/group definitions into one
fully-merged configuration per host.

Hosts declare group memberships; group fragments are layered onto every
member in declaration order, and any fragment can introspect the final
configuration of any other host through lazy cross-references.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = telemetry.NewLogger(telemetry.LoggingConfig{
				Level:  logLevel,
				Format: logFormat,
				Output: "stderr",
			})
			return err
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newHostsCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
