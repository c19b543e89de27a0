package main

import (
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listingbridge/internal/logging"
)

type rootOptions struct {
	envFile   string
	logLevel  string
	logFormat string

	logger *slog.Logger
}

// newRootCmd builds the command tree writing results to out and logs to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "listingctl",
		Short: "Transform product records into marketplace listings",
		Long: `listingctl works with the same platform registry, field schemas and
CSV layouts as the listingbridge server.

Use it to look up what a marketplace requires, or to turn a JSON or YAML
product file into an import-ready CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is not an error; the environment still applies.
			if opts.envFile != "" {
				_ = godotenv.Load(opts.envFile)
			}
			opts.logger = logging.New(errOut, opts.logLevel, opts.logFormat)
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file to load before reading configuration")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text|json)")

	cmd.AddCommand(
		newPlatformsCommand(),
		newFieldsCommand(),
		newExportCommand(opts),
		newSchemaCommand(),
	)
	return cmd
}
