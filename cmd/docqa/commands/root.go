// Package commands defines all Cobra CLI commands for the docqa binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/config"
	"github.com/54b3r/docqa-go/internal/logging"
)

// rootFlags holds the persistent flag values shared by every subcommand.
type rootFlags struct {
	// configPath is the --config flag value for YAML config file override.
	configPath string
	// envFile is the --env-file flag value.
	envFile string
	// metricsFile overrides DOCQA_METRICS_FILE.
	metricsFile string
	// loadedConfigPath stores the resolved config file path for audit logging.
	loadedConfigPath string
}

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "docqa",
		Short: "docqa answers questions about your documents, with sources",
		Long: `docqa is a local-first question answering tool for a directory of documents.

Index text, markdown and PDF files with 'docqa ingest', then ask questions with
'docqa ask'. Answers cite the files they were drawn from.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.docqa/config.yaml).
See 'docqa --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			bootstrap := logging.New()

			if err := config.LoadDotEnv(flags.envFile, bootstrap); err != nil {
				return err
			}
			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(flags.configPath, bootstrap)
			if err != nil {
				return err
			}
			flags.loadedConfigPath = path

			// LOG_LEVEL and LOG_FORMAT may have come from a file.
			ctx := logging.WithLogger(cmd.Context(), logging.New())
			cmd.SetContext(logging.WithRunID(ctx, logging.NewRunID()))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to YAML config file (default: ~/.docqa/config.yaml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Path to a .env file; missing files are ignored")
	root.PersistentFlags().StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the command (default: $DOCQA_METRICS_FILE)")

	root.AddCommand(
		NewIngestCmd(flags),
		NewAskCmd(flags),
		NewSearchCmd(flags),
		NewVersionCmd(),
	)

	return root
}
