// Package coverage models LCOV tracefile records and reads and writes the
// LCOV text format.
package coverage

// Hit is implemented by every entry kind a HitGroup can hold.
type Hit interface {
	// HitCount is the entry's contribution to the group's hit total.
	HitCount() int
}

// FunctionHit is one FN/FNDA pair.
type FunctionHit struct {
	Line int
	Name string
	Hit  int
}

// HitCount returns the number of times the function was entered.
func (f FunctionHit) HitCount() int { return f.Hit }

// LineHit is one DA entry.
type LineHit struct {
	Line int
	Hit  int
	// Checksum is the optional third DA field. It is read but never written.
	Checksum string
}

// HitCount returns the execution count of the line.
func (l LineHit) HitCount() int { return l.Hit }

// BranchHit is one BRDA entry. Taken is 0 when the tracefile says "-".
type BranchHit struct {
	Line   int
	Block  int
	Branch int
	Taken  int
}

// HitCount returns how often the branch was taken.
func (b BranchHit) HitCount() int { return b.Taken }

// CoverageStats holds coverage statistics for display.
type CoverageStats struct {
	// Line coverage percentage (0-100)
	CoveragePercentage float64 `json:"coverage_percentage"`

	TotalLines        int `json:"total_lines"`
	TotalCoveredLines int `json:"total_covered_lines"`

	TotalFunctions        int `json:"total_functions"`
	TotalCoveredFunctions int `json:"total_covered_functions"`

	TotalBranches      int `json:"total_branches"`
	TotalTakenBranches int `json:"total_taken_branches"`
}

// Stats computes display statistics for a record. Unlike the LCOV totals,
// covered counts here are the number of entries with a non-zero hit.
func (r *Record) Stats() CoverageStats {
	var s CoverageStats
	for _, l := range r.Lines.details {
		s.TotalLines++
		if l.Hit > 0 {
			s.TotalCoveredLines++
		}
	}
	for _, f := range r.Functions.details {
		s.TotalFunctions++
		if f.Hit > 0 {
			s.TotalCoveredFunctions++
		}
	}
	for _, b := range r.Branches.details {
		s.TotalBranches++
		if b.Taken > 0 {
			s.TotalTakenBranches++
		}
	}
	if s.TotalLines > 0 {
		s.CoveragePercentage = float64(s.TotalCoveredLines) * 100 / float64(s.TotalLines)
	}
	return s
}

// Add accumulates other into s.
func (s *CoverageStats) Add(other CoverageStats) {
	s.TotalLines += other.TotalLines
	s.TotalCoveredLines += other.TotalCoveredLines
	s.TotalFunctions += other.TotalFunctions
	s.TotalCoveredFunctions += other.TotalCoveredFunctions
	s.TotalBranches += other.TotalBranches
	s.TotalTakenBranches += other.TotalTakenBranches
	if s.TotalLines > 0 {
		s.CoveragePercentage = float64(s.TotalCoveredLines) * 100 / float64(s.TotalLines)
	} else {
		s.CoveragePercentage = 0
	}
}
