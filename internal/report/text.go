package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/zjy-dev/lcov-sourcemap/internal/coverage"
)

// TextReporter writes a human-readable table.
type TextReporter struct{}

// Write renders s as a header followed by one row per file and a total row.
func (r *TextReporter) Write(w io.Writer, s *Summary) error {
	run := s.Run
	fmt.Fprintf(w, "Remapped %s generated files onto %s original files (%s written, %s excluded)\n",
		humanize.Comma(int64(run.GeneratedFiles)),
		humanize.Comma(int64(run.OriginalFiles)),
		humanize.Comma(int64(run.Written)),
		humanize.Comma(int64(len(run.Excluded))))
	fmt.Fprintf(w, "Entries: %s resolved, %s dropped\n",
		humanize.Comma(int64(run.Resolved)),
		humanize.Comma(int64(run.Dropped)))

	if len(s.Files) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINES\tFUNCTIONS\tBRANCHES\t")
	for _, f := range s.Files {
		fmt.Fprintf(tw, "%s\t%s\t", f.Path, lineCell(f.Coverage))
		fmt.Fprintf(tw, "%s\t%s\t\n", ratio(f.Coverage.TotalCoveredFunctions, f.Coverage.TotalFunctions),
			ratio(f.Coverage.TotalTakenBranches, f.Coverage.TotalBranches))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\t\n", lineCell(s.Total),
		ratio(s.Total.TotalCoveredFunctions, s.Total.TotalFunctions),
		ratio(s.Total.TotalTakenBranches, s.Total.TotalBranches))
	return tw.Flush()
}

func lineCell(c coverage.CoverageStats) string {
	if c.TotalLines == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%% (%s)", c.CoveragePercentage, ratio(c.TotalCoveredLines, c.TotalLines))
}

func ratio(covered, total int) string {
	if total == 0 {
		return "-"
	}
	return humanize.Comma(int64(covered)) + "/" + humanize.Comma(int64(total))
}
