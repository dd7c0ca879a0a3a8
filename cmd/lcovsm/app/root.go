package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/lcov-sourcemap/internal/logger"
)

// NewLcovsmCommand creates the root command for the lcovsm tool.
func NewLcovsmCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lcovsm",
		Short: "Remap LCOV coverage from generated files onto their original sources.",
		Long: `lcovsm rewrites an LCOV tracefile recorded against bundled or transpiled
files so that it describes the original sources, using the source maps
emitted alongside the generated code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	cmd.PersistentFlags().String("config", "", "Config file (default: lcovsm.yaml in . or configs/)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-dir", "", "Also write logs to a timestamped file in this directory")

	cmd.AddCommand(NewRemapCommand())
	cmd.AddCommand(NewInspectCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// setupLogging applies the configured level and, when dir is set, starts
// logging to a file as well.
func setupLogging(level, dir string) error {
	logger.Init(level)
	logger.SetLevel(level)
	if dir == "" {
		return nil
	}
	if err := logger.InitWithFile(level, dir); err != nil {
		return fmt.Errorf("failed to set up log file: %w", err)
	}
	logger.Debug("logging to %s", logger.GetLogFilePath())
	return nil
}
