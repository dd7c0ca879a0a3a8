// Package report renders the summary of a remap run.
package report

import (
	"fmt"
	"io"

	"github.com/zjy-dev/lcov-sourcemap/internal/coverage"
	"github.com/zjy-dev/lcov-sourcemap/internal/remap"
)

// Reporter writes a run summary.
type Reporter interface {
	Write(w io.Writer, s *Summary) error
}

// FileSummary is the coverage of one written original file.
type FileSummary struct {
	Path     string                 `json:"path"`
	Coverage coverage.CoverageStats `json:"coverage"`
}

// Summary describes one run: the pipeline counters, the coverage of every
// written record and their total.
type Summary struct {
	Run   remap.Stats            `json:"run"`
	Files []FileSummary          `json:"files"`
	Total coverage.CoverageStats `json:"total"`
}

// NewSummary builds a Summary from the result of remap.Process. Only records
// that made it into the output are listed, under their emitted path.
func NewSummary(res *remap.Result) *Summary {
	excluded := make(map[string]bool, len(res.Stats.Excluded))
	for _, p := range res.Stats.Excluded {
		excluded[p] = true
	}

	s := &Summary{Run: res.Stats, Files: []FileSummary{}}
	for _, r := range res.Table.Records() {
		if excluded[r.Path] {
			continue
		}
		stats := r.Stats()
		s.Files = append(s.Files, FileSummary{Path: remap.NormalizePath(r.Path), Coverage: stats})
		s.Total.Add(stats)
	}
	return s
}

// New returns the reporter for format, "text" or "json".
func New(format string) (Reporter, error) {
	switch format {
	case "text":
		return &TextReporter{}, nil
	case "json":
		return &JSONReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown summary format %q", format)
	}
}
