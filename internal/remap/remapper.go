package remap

import "github.com/zjy-dev/lcov-sourcemap/internal/coverage"

// Remap moves every entry of a generated file's record onto the original
// files its map points to. Entries are appended one by one, so two generated
// entries landing on the same original line stay two entries. Entries whose
// line has no original position are dropped and counted.
func Remap(rec *coverage.Record, res *Resolver) (*Table, Stats) {
	table := NewTable()
	stats := Stats{GeneratedFiles: 1}

	for _, f := range rec.Functions.Details() {
		stats.Entries++
		loc, ok := res.Resolve(f.Line)
		if !ok {
			stats.Dropped++
			continue
		}
		table.Record(loc.Path).AddFunction(coverage.FunctionHit{Line: loc.Line, Name: f.Name, Hit: f.Hit})
	}

	for _, l := range rec.Lines.Details() {
		stats.Entries++
		loc, ok := res.Resolve(l.Line)
		if !ok {
			stats.Dropped++
			continue
		}
		table.Record(loc.Path).AddLine(coverage.LineHit{Line: loc.Line, Hit: l.Hit})
	}

	for _, b := range rec.Branches.Details() {
		stats.Entries++
		loc, ok := res.Resolve(b.Line)
		if !ok {
			stats.Dropped++
			continue
		}
		table.Record(loc.Path).AddBranch(coverage.BranchHit{Line: loc.Line, Block: b.Block, Branch: b.Branch, Taken: b.Taken})
	}

	stats.Resolved = stats.Entries - stats.Dropped
	return table, stats
}
