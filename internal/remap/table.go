package remap

import "github.com/zjy-dev/lcov-sourcemap/internal/coverage"

// Table maps original file paths to their records and remembers the order in
// which paths were first seen. It is not safe for concurrent use; each
// goroutine fills its own Table and tables are merged afterwards.
type Table struct {
	order   []string
	records map[string]*coverage.Record
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{records: make(map[string]*coverage.Record)}
}

// Record returns the record for path, creating it on first use.
func (t *Table) Record(path string) *coverage.Record {
	if r, ok := t.records[path]; ok {
		return r
	}
	r := coverage.NewRecord(path)
	t.records[path] = r
	t.order = append(t.order, path)
	return r
}

// Get returns the record for path without creating it.
func (t *Table) Get(path string) (*coverage.Record, bool) {
	r, ok := t.records[path]
	return r, ok
}

// Len returns the number of paths.
func (t *Table) Len() int { return len(t.order) }

// Paths returns the paths in first-seen order.
func (t *Table) Paths() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Records returns the records in first-seen order.
func (t *Table) Records() []*coverage.Record {
	out := make([]*coverage.Record, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.records[p])
	}
	return out
}

// Merge appends every record of other into t. Records for a path already in
// t are concatenated, new paths are added after the existing ones.
func (t *Table) Merge(other *Table) {
	for _, p := range other.order {
		t.Record(p).Append(other.records[p])
	}
}

// Filter returns a new Table holding the records for which keep returns true,
// in the same order. Records are shared, not copied; t is left unchanged.
func (t *Table) Filter(keep func(path string, r *coverage.Record) bool) *Table {
	out := NewTable()
	for _, p := range t.order {
		r := t.records[p]
		if keep(p, r) {
			out.records[p] = r
			out.order = append(out.order, p)
		}
	}
	return out
}
