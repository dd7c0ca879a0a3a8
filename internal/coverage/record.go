package coverage

import (
	"strconv"
	"strings"
)

// HitGroup accumulates one kind of hit entry. Found and Hit are updated
// together with every Add, so Found always equals len(Details) and Hit the
// sum of the entries' HitCount.
type HitGroup[T Hit] struct {
	found   int
	hit     int
	details []T
}

// Add appends an entry. Duplicates are kept.
func (g *HitGroup[T]) Add(entry T) {
	g.found++
	g.hit += entry.HitCount()
	g.details = append(g.details, entry)
}

// Found returns the number of entries added.
func (g *HitGroup[T]) Found() int { return g.found }

// Hit returns the summed hit count of all entries.
func (g *HitGroup[T]) Hit() int { return g.hit }

// Len returns the number of entries.
func (g *HitGroup[T]) Len() int { return len(g.details) }

// Details returns a copy of the entries in insertion order.
func (g *HitGroup[T]) Details() []T {
	out := make([]T, len(g.details))
	copy(out, g.details)
	return out
}

// Record is the coverage of a single source file.
type Record struct {
	// TestName is the TN: value read from a tracefile. It is not written back.
	TestName string
	Path     string

	Functions HitGroup[FunctionHit]
	Lines     HitGroup[LineHit]
	Branches  HitGroup[BranchHit]
}

// NewRecord creates an empty record for path.
func NewRecord(path string) *Record {
	return &Record{Path: path}
}

// AddFunction appends a function entry.
func (r *Record) AddFunction(f FunctionHit) *Record {
	r.Functions.Add(f)
	return r
}

// AddLine appends a line entry.
func (r *Record) AddLine(l LineHit) *Record {
	r.Lines.Add(l)
	return r
}

// AddBranch appends a branch entry.
func (r *Record) AddBranch(b BranchHit) *Record {
	r.Branches.Add(b)
	return r
}

// Append adds every entry of other to r, functions first, then lines, then
// branches, preserving other's order.
func (r *Record) Append(other *Record) {
	for _, f := range other.Functions.details {
		r.AddFunction(f)
	}
	for _, l := range other.Lines.details {
		r.AddLine(l)
	}
	for _, b := range other.Branches.details {
		r.AddBranch(b)
	}
}

// Empty reports whether the record holds no entries at all.
func (r *Record) Empty() bool {
	return r.Functions.Len() == 0 && r.Lines.Len() == 0 && r.Branches.Len() == 0
}

// String renders the record as one LCOV block terminated by end_of_record,
// without a trailing newline.
func (r *Record) String() string {
	var b strings.Builder
	r.write(&b)
	return b.String()
}

func (r *Record) write(b *strings.Builder) {
	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteByte('\n')
	}
	itoa := strconv.Itoa

	line("TN:")
	line("SF:", r.Path)

	for _, f := range r.Functions.details {
		line("FN:", itoa(f.Line), ",", f.Name)
	}
	line("FNF:", itoa(r.Functions.found))
	line("FNH:", itoa(r.Functions.hit))
	for _, f := range r.Functions.details {
		line("FNDA:", itoa(f.Hit), ",", f.Name)
	}

	for _, l := range r.Lines.details {
		line("DA:", itoa(l.Line), ",", itoa(l.Hit))
	}
	line("LF:", itoa(r.Lines.found))
	line("LH:", itoa(r.Lines.hit))

	for _, br := range r.Branches.details {
		line("BRDA:", itoa(br.Line), ",", itoa(br.Block), ",", itoa(br.Branch), ",", itoa(br.Taken))
	}
	line("BRF:", itoa(r.Branches.found))
	line("BRH:", itoa(r.Branches.hit))

	b.WriteString("end_of_record")
}

// Format renders records as LCOV blocks joined by a newline.
func Format(records []*Record) string {
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		r.write(&b)
	}
	return b.String()
}

// WithPath returns a shallow copy of r reporting a different path. The copy
// shares entries with r and must not be added to.
func (r *Record) WithPath(path string) *Record {
	c := *r
	c.Path = path
	return &c
}
