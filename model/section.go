package model

import "fmt"

// SectionRange assigns page geometry to a contiguous run of blocks starting
// at StartBlock and ending just before the next range's StartBlock (or at the
// end of the document for the last range).
type SectionRange struct {
	StartBlock  int
	Page        PageSize
	Orientation Orientation
	Columns     int     // column count, minimum 1
	ColumnGap   float64 // gap between columns in layout units
	Margins     Margins
}

// normalized returns the range with defaulted column count
func (s SectionRange) normalized() SectionRange {
	if s.Columns < 1 {
		s.Columns = 1
	}
	return s
}

// GeometryEquals reports whether two sections share page geometry (size,
// orientation, columns, margins). Sections with equal geometry can share a
// page across a continuous break; unequal geometry forces a page boundary.
func (s SectionRange) GeometryEquals(other SectionRange) bool {
	a, b := s.normalized(), other.normalized()
	return a.Page == b.Page &&
		a.Orientation == b.Orientation &&
		a.Columns == b.Columns &&
		a.ColumnGap == b.ColumnGap &&
		a.Margins == b.Margins
}

// ConfigError reports a structural configuration fault. Configuration faults
// are fatal: the engine cannot produce a meaningful layout from them, unlike
// per-block measurement faults which are recovered locally.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "layout configuration: " + e.Reason
}

// ValidateSections checks that the section ranges are sorted by starting
// block index, non-overlapping, and cover the full block sequence starting
// at block 0. A violation is returned as a *ConfigError.
func ValidateSections(blockCount int, sections []SectionRange) error {
	if len(sections) == 0 {
		return &ConfigError{Reason: "no section ranges"}
	}
	if sections[0].StartBlock != 0 {
		return &ConfigError{Reason: fmt.Sprintf("first section starts at block %d, want 0", sections[0].StartBlock)}
	}
	for i := 1; i < len(sections); i++ {
		if sections[i].StartBlock <= sections[i-1].StartBlock {
			return &ConfigError{Reason: fmt.Sprintf("section %d starts at block %d, not after section %d (block %d)",
				i, sections[i].StartBlock, i-1, sections[i-1].StartBlock)}
		}
	}
	last := sections[len(sections)-1]
	if blockCount > 0 && last.StartBlock >= blockCount {
		return &ConfigError{Reason: fmt.Sprintf("section %d starts at block %d beyond document end (%d blocks)",
			len(sections)-1, last.StartBlock, blockCount)}
	}
	for i, s := range sections {
		if s.Page.Width <= 0 || s.Page.Height <= 0 {
			return &ConfigError{Reason: fmt.Sprintf("section %d has empty page geometry", i)}
		}
	}
	return nil
}

// SectionFor returns the index of the section containing the given block
// index. Sections must already be validated.
func SectionFor(blockIndex int, sections []SectionRange) int {
	idx := 0
	for i, s := range sections {
		if s.StartBlock > blockIndex {
			break
		}
		idx = i
	}
	return idx
}
