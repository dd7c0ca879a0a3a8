package remap

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/zjy-dev/lcov-sourcemap/internal/coverage"
	"github.com/zjy-dev/lcov-sourcemap/internal/logger"
)

// Assembler turns the merged table into LCOV text, keeping only records whose
// original file exists under the source directory.
type Assembler struct {
	fs          afero.Fs
	sourceDir   string
	concurrency int
}

// NewAssembler creates an Assembler. sourceDir must be absolute.
func NewAssembler(fsys afero.Fs, sourceDir string, concurrency int) *Assembler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Assembler{fs: fsys, sourceDir: sourceDir, concurrency: concurrency}
}

// exists reports whether the normalized path names an existing entry.
func (a *Assembler) exists(path string) bool {
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(a.sourceDir, target)
	}
	if _, err := a.fs.Stat(target); err != nil {
		logger.Debug("excluding %s: %v", path, err)
		return false
	}
	return true
}

// Filter returns the subset of t whose normalized paths exist, plus the
// excluded table keys. Stat calls run concurrently; order is preserved.
func (a *Assembler) Filter(ctx context.Context, t *Table) (*Table, []string, error) {
	paths := t.Paths()
	keep := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			keep[i] = a.exists(NormalizePath(p))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	kept := make(map[string]bool, len(paths))
	var excluded []string
	for i, p := range paths {
		if keep[i] {
			kept[p] = true
		} else {
			excluded = append(excluded, p)
		}
	}
	return t.Filter(func(path string, _ *coverage.Record) bool { return kept[path] }), excluded, nil
}

// Assemble filters t and serializes the surviving records, each under its
// normalized path, in table order.
func (a *Assembler) Assemble(ctx context.Context, t *Table) (string, Stats, error) {
	filtered, excluded, err := a.Filter(ctx, t)
	if err != nil {
		return "", Stats{}, err
	}

	records := make([]*coverage.Record, 0, filtered.Len())
	for _, r := range filtered.Records() {
		records = append(records, r.WithPath(NormalizePath(r.Path)))
	}

	stats := Stats{
		OriginalFiles: t.Len(),
		Written:       len(records),
		Excluded:      excluded,
	}
	return coverage.Format(records), stats, nil
}
