package remap

import (
	"path/filepath"
	"strings"

	"github.com/zjy-dev/lcov-sourcemap/internal/sourcemap"
)

// Location is an original file path and 1-based line.
type Location struct {
	Path string
	Line int
}

// Resolver answers "which original line does generated line L map to" for
// one generated file.
type Resolver struct {
	consumer  *sourcemap.Consumer
	mapPath   string
	sourceDir string
	root      string
	hasRoot   bool
}

// NewResolver creates a Resolver for a loaded map. sourceDir must be
// absolute; original paths are expressed relative to it.
func NewResolver(h *sourcemap.Handle, sourceDir string) *Resolver {
	root, ok := h.Consumer.SourceRoot()
	return &Resolver{
		consumer:  h.Consumer,
		mapPath:   h.Path,
		sourceDir: sourceDir,
		root:      root,
		hasRoot:   ok,
	}
}

// Resolve maps a generated line, taken at column 0, to its original
// location using the least-upper-bound rule. ok is false when the line has
// no mapping with a source on it.
func (r *Resolver) Resolve(line int) (loc Location, ok bool) {
	pos, ok := r.consumer.OriginalPositionFor(line, 0, sourcemap.LeastUpperBound)
	if !ok {
		return Location{}, false
	}
	return Location{Path: r.originalPath(pos.Source), Line: pos.Line}, true
}

// originalPath turns a map source into the key used for the output record.
//
// Without a source root the source is relative to the map file and the
// result is "./" followed by the path relative to sourceDir. With a source
// root, the first occurrence of the root in the source is replaced by "./".
// The two forms are not reconciled with each other.
func (r *Resolver) originalPath(source string) string {
	if r.hasRoot {
		return strings.Replace(source, r.root, "./", 1)
	}

	joined := filepath.Join(filepath.Dir(r.mapPath), source)
	rel, err := filepath.Rel(r.sourceDir, joined)
	if err != nil {
		rel = joined
	}
	return "." + string(filepath.Separator) + rel
}
