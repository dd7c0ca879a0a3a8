package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/lcov-sourcemap/internal/config"
	"github.com/zjy-dev/lcov-sourcemap/internal/logger"
	"github.com/zjy-dev/lcov-sourcemap/internal/remap"
	"github.com/zjy-dev/lcov-sourcemap/internal/report"
	"github.com/zjy-dev/lcov-sourcemap/internal/sourcemap"
)

// NewRemapCommand creates the "remap" subcommand.
func NewRemapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remap",
		Short: "Remap a tracefile onto original sources.",
		Long: `Read an LCOV tracefile whose SF: entries name generated files, look up the
source map of each one and write a tracefile with one record per original
source file.

Entries on generated lines without a mapping are dropped. Original files that
do not exist under the source directory are left out. A generated file
without a source map fails the whole run and nothing is written.

Configuration:
  Values come from flags, LCOVSM_* environment variables (a .env file in the
  working directory is read first), lcovsm.yaml and built-in defaults, in
  that order.

Examples:
  # Sidecar maps next to each bundle, output to stdout
  lcovsm remap --lcov coverage/lcov.info

  # Maps embedded in the bundles, written to a file with a summary
  lcovsm remap --lcov coverage/lcov.info --inline --output coverage/lcov.src.info --summary text

  # Maps kept in a separate directory
  lcovsm remap --lcov coverage/lcov.info --sourcemaps "build/maps/{base}.map"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			return runRemap(cmd.Context(), cfg, afero.NewOsFs(), wd, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	// Defaults shown here match config's; unset flags never override a config value.
	cmd.Flags().String("lcov", "", "LCOV tracefile recorded against generated files")
	cmd.Flags().String("sourcemaps", sourcemap.DefaultTemplate, "Source map path template ({path}, {dir}, {base}, {name}, {ext})")
	cmd.Flags().Bool("inline", false, "Read maps embedded in the generated files")
	cmd.Flags().String("source-dir", "", "Directory original paths are relative to (default: working directory)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Int("concurrency", remap.DefaultConcurrency, "Maximum parallel map loads")
	cmd.Flags().Int("cache-size", sourcemap.DefaultCacheSize, "Number of decoded maps kept in memory")
	cmd.Flags().String("summary", "", "Print a run summary to stderr: text or json")

	return cmd
}

func runRemap(ctx context.Context, cfg *config.Config, fsys afero.Fs, workDir string, stdout, stderr io.Writer) error {
	if err := setupLogging(cfg.LogLevel, cfg.LogDir); err != nil {
		return err
	}

	sourceDir := cfg.SourceDir
	if sourceDir == "" {
		sourceDir = workDir
	} else if !filepath.IsAbs(sourceDir) {
		sourceDir = filepath.Join(workDir, sourceDir)
	}

	opts := remap.Options{
		Fs:          fsys,
		Lcov:        cfg.Lcov,
		Locator:     sourcemap.TemplateLocator(cfg.Template()),
		SourceDir:   sourceDir,
		WorkDir:     workDir,
		Concurrency: cfg.Concurrency,
		CacheSize:   cfg.CacheSize,
	}
	logger.Info("remapping %s (maps: %s)", cfg.Lcov, cfg.Template())

	var (
		res *remap.Result
		err error
	)
	if cfg.Output == "" {
		res, err = remap.Process(ctx, opts)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(stdout, res.Output); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		res, err = remap.WriteLcov(ctx, opts, cfg.Output)
		if err != nil {
			return err
		}
		logger.Info("wrote %d records to %s", res.Stats.Written, cfg.Output)
	}

	if res.Stats.Dropped > 0 {
		logger.Debug("%d entries had no original position", res.Stats.Dropped)
	}
	for _, p := range res.Stats.Excluded {
		logger.Debug("excluded %s: not found under %s", p, sourceDir)
	}

	if cfg.Summary == "" {
		return nil
	}
	r, err := report.New(cfg.Summary)
	if err != nil {
		return err
	}
	return r.Write(stderr, report.NewSummary(res))
}
