// Package remap moves LCOV coverage measured on generated files onto the
// original sources their source maps point to.
package remap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/zjy-dev/lcov-sourcemap/internal/coverage"
	"github.com/zjy-dev/lcov-sourcemap/internal/logger"
	"github.com/zjy-dev/lcov-sourcemap/internal/sourcemap"
)

// DefaultConcurrency bounds parallel map loading and existence checks.
const DefaultConcurrency = 8

// Options configures a run.
type Options struct {
	// Fs is the filesystem all reads and writes go through. Defaults to the
	// OS filesystem.
	Fs afero.Fs
	// Lcov is the tracefile to read.
	Lcov string
	// Locator finds the map for each generated file. Defaults to
	// sourcemap.TemplateLocator(sourcemap.DefaultTemplate).
	Locator sourcemap.Locator
	// SourceDir is the absolute directory original paths are relative to.
	SourceDir string
	// WorkDir is the absolute directory relative tracefile and map paths are
	// resolved against.
	WorkDir string
	// Concurrency bounds the number of parallel loads and checks.
	Concurrency int
	// CacheSize is the number of decoded maps kept in memory.
	CacheSize int
}

func (o *Options) validate() error {
	if o.Lcov == "" {
		return errors.New("lcov path is required")
	}
	if o.SourceDir == "" || !filepath.IsAbs(o.SourceDir) {
		return fmt.Errorf("source directory must be an absolute path, got %q", o.SourceDir)
	}
	if o.WorkDir == "" || !filepath.IsAbs(o.WorkDir) {
		return fmt.Errorf("work directory must be an absolute path, got %q", o.WorkDir)
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Locator == nil {
		o.Locator = sourcemap.TemplateLocator(sourcemap.DefaultTemplate)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return nil
}

// generatedFile is one tracefile record with the map loaded for it.
type generatedFile struct {
	record *coverage.Record
	handle *sourcemap.Handle
}

// Driver runs the remapping pipeline.
type Driver struct {
	opts   Options
	loader *sourcemap.Loader
}

// NewDriver validates opts and creates a Driver.
func NewDriver(opts Options) (*Driver, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	loader, err := sourcemap.NewLoader(opts.Fs, opts.WorkDir, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Driver{opts: opts, loader: loader}, nil
}

// generatedFiles parses the tracefile and keys its records by generated path.
// A path seen twice keeps its first position and its last record.
func (d *Driver) generatedFiles() ([]*generatedFile, error) {
	path := d.opts.Lcov
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.opts.WorkDir, path)
	}
	records, err := coverage.ParseFile(d.opts.Fs, path)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(records))
	files := make([]*generatedFile, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.Path]; ok {
			logger.Warn("tracefile lists %s more than once, using the last record", r.Path)
			files[i].record = r
			continue
		}
		index[r.Path] = len(files)
		files = append(files, &generatedFile{record: r})
	}
	return files, nil
}

// load finds and decodes the map for one generated file.
func (d *Driver) load(key string) (*sourcemap.Handle, error) {
	mapPath := d.opts.Locator(key)
	if mapPath == "" {
		return nil, &MissingSourceMapError{Key: key}
	}
	h, err := d.loader.Load(key, mapPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingSourceMapError{Key: key, Path: mapPath, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("source map for %s: %w", key, err)
	}
	return h, nil
}

// Run parses the tracefile, loads every map, remaps each generated file and
// merges the results in tracefile order. Any map that cannot be found or
// decoded fails the whole run.
func (d *Driver) Run(ctx context.Context) (*Table, Stats, error) {
	files, err := d.generatedFiles()
	if err != nil {
		return nil, Stats{}, err
	}
	logger.Debug("tracefile has %d generated files", len(files))

	tables := make([]*Table, len(files))
	stats := make([]Stats, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := d.load(f.record.Path)
			if err != nil {
				return err
			}
			f.handle = h
			tables[i], stats[i] = Remap(f.record, NewResolver(h, d.opts.SourceDir))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	merged := NewTable()
	var total Stats
	for i, f := range files {
		logger.Debug("%s -> %d original files (%d dropped)", f.handle.Key, tables[i].Len(), stats[i].Dropped)
		merged.Merge(tables[i])
		total.add(stats[i])
	}
	total.OriginalFiles = merged.Len()
	return merged, total, nil
}

// Result is the outcome of Process.
type Result struct {
	Output string
	Table  *Table
	Stats  Stats
}

// Process runs the driver and assembles the output.
func Process(ctx context.Context, opts Options) (*Result, error) {
	d, err := NewDriver(opts)
	if err != nil {
		return nil, err
	}
	table, stats, err := d.Run(ctx)
	if err != nil {
		return nil, err
	}

	a := NewAssembler(d.opts.Fs, d.opts.SourceDir, d.opts.Concurrency)
	out, astats, err := a.Assemble(ctx, table)
	if err != nil {
		return nil, err
	}
	stats.Written = astats.Written
	stats.Excluded = astats.Excluded
	return &Result{Output: out, Table: table, Stats: stats}, nil
}

// GetLcov returns the remapped tracefile as text.
func GetLcov(ctx context.Context, opts Options) (string, error) {
	res, err := Process(ctx, opts)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// WriteLcov remaps opts.Lcov and writes the result to output, creating its
// directory when needed. Nothing is written if the run fails.
func WriteLcov(ctx context.Context, opts Options, output string) (*Result, error) {
	res, err := Process(ctx, opts)
	if err != nil {
		return nil, err
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if !filepath.IsAbs(output) && opts.WorkDir != "" {
		output = filepath.Join(opts.WorkDir, output)
	}
	if err := fsys.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := afero.WriteFile(fsys, output, []byte(res.Output), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", output, err)
	}
	return res, nil
}
