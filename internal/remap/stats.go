package remap

// Stats counts what happened during a run.
type Stats struct {
	// GeneratedFiles is the number of tracefile records remapped.
	GeneratedFiles int `json:"generated_files"`
	// Entries is the number of function, line and branch entries examined.
	Entries int `json:"entries"`
	// Resolved is the number of entries that mapped to an original position.
	Resolved int `json:"resolved"`
	// Dropped is the number of entries without an original position.
	Dropped int `json:"dropped"`
	// OriginalFiles is the number of original files after merging.
	OriginalFiles int `json:"original_files"`
	// Written is the number of records emitted.
	Written int `json:"written"`
	// Excluded lists original paths dropped because they do not exist on disk.
	Excluded []string `json:"excluded,omitempty"`
}

// add accumulates the remapping counters of other.
func (s *Stats) add(other Stats) {
	s.GeneratedFiles += other.GeneratedFiles
	s.Entries += other.Entries
	s.Resolved += other.Resolved
	s.Dropped += other.Dropped
}
