package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/lcov-sourcemap/internal/filereader"
	"github.com/zjy-dev/lcov-sourcemap/internal/remap"
	"github.com/zjy-dev/lcov-sourcemap/internal/sourcemap"
)

type inspectOptions struct {
	mapPath    string
	sourceDir  string
	lines      []int
	showSource bool
}

// NewInspectCommand creates the "inspect" subcommand.
func NewInspectCommand() *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode one source map and show how generated lines resolve.",
		Long: `Decode a single source map and print its sources, its source root and the
original location each requested generated line resolves to, exactly as
"remap" would compute it.

A map path without a .map extension is read as a generated file carrying an
inline map.

Examples:
  lcovsm inspect --map dist/app.js.map --line 10 --line 42
  lcovsm inspect --map dist/app.js --line 3 --show-source`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			logDir, _ := cmd.Flags().GetString("log-dir")
			if err := setupLogging(level, logDir); err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			return runInspect(afero.NewOsFs(), wd, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.mapPath, "map", "", "Source map, or generated file with an inline map")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", "", "Directory original paths are relative to (default: working directory)")
	cmd.Flags().IntSliceVar(&opts.lines, "line", nil, "Generated line to resolve (repeatable)")
	cmd.Flags().BoolVar(&opts.showSource, "show-source", false, "Print the original source line next to each resolution")
	_ = cmd.MarkFlagRequired("map")

	return cmd
}

func runInspect(fsys afero.Fs, workDir string, opts inspectOptions, out io.Writer) error {
	sourceDir := opts.sourceDir
	if sourceDir == "" {
		sourceDir = workDir
	} else if !filepath.IsAbs(sourceDir) {
		sourceDir = filepath.Join(workDir, sourceDir)
	}

	loader, err := sourcemap.NewLoader(fsys, workDir, 1)
	if err != nil {
		return err
	}
	h, err := loader.Load(opts.mapPath, opts.mapPath)
	if err != nil {
		return err
	}
	c := h.Consumer

	fmt.Fprintf(out, "map:         %s\n", h.Path)
	if c.File() != "" {
		fmt.Fprintf(out, "file:        %s\n", c.File())
	}
	if root, ok := c.SourceRoot(); ok {
		fmt.Fprintf(out, "sourceRoot:  %s\n", root)
	} else {
		fmt.Fprintln(out, "sourceRoot:  (none)")
	}
	fmt.Fprintf(out, "mappings:    %d\n", c.MappingCount())
	fmt.Fprintf(out, "sources:     %d\n", len(c.Sources()))
	for i, s := range c.Sources() {
		fmt.Fprintf(out, "  [%d] %s\n", i, s)
	}

	if len(opts.lines) == 0 {
		return nil
	}
	fmt.Fprintln(out)

	res := remap.NewResolver(h, sourceDir)
	cache := make(map[string][]string)
	for _, line := range opts.lines {
		loc, ok := res.Resolve(line)
		if !ok {
			fmt.Fprintf(out, "%d -> (unmapped)\n", line)
			continue
		}
		path := remap.NormalizePath(loc.Path)
		fmt.Fprintf(out, "%d -> %s:%d\n", line, path, loc.Line)
		if !opts.showSource {
			continue
		}
		text, err := sourceLine(fsys, sourceDir, path, loc.Line, cache)
		if err != nil {
			fmt.Fprintf(out, "     (%v)\n", err)
			continue
		}
		fmt.Fprintf(out, "     | %s\n", strings.TrimRight(text, " \t"))
	}
	return nil
}

// sourceLine returns a 1-based line of an original file, reading each file once.
func sourceLine(fsys afero.Fs, sourceDir, path string, line int, cache map[string][]string) (string, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(sourceDir, full)
	}
	lines, ok := cache[full]
	if !ok {
		var err error
		lines, err = filereader.ReadLines(fsys, full)
		if err != nil {
			return "", fmt.Errorf("cannot read %s: %w", path, err)
		}
		cache[full] = lines
	}
	if line < 1 || line > len(lines) {
		return "", fmt.Errorf("%s has no line %d", path, line)
	}
	return lines[line-1], nil
}
