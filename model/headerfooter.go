package model

import "strconv"

// HFVariant selects which header/footer definition applies to a page
type HFVariant int

const (
	VariantDefault HFVariant = iota
	VariantFirst
	VariantEven
	VariantOdd
)

func (v HFVariant) String() string {
	switch v {
	case VariantFirst:
		return "First"
	case VariantEven:
		return "Even"
	case VariantOdd:
		return "Odd"
	default:
		return "Default"
	}
}

// HeaderFooterDef holds the up-to-four content variants of one header or
// footer. A nil variant falls back to Default; a nil Default means the
// section has no header (or footer) of this kind.
type HeaderFooterDef struct {
	Default []Block
	First   []Block
	Even    []Block
	Odd     []Block
}

// IsEmpty reports whether no variant carries content
func (d *HeaderFooterDef) IsEmpty() bool {
	if d == nil {
		return true
	}
	return len(d.Default) == 0 && len(d.First) == 0 && len(d.Even) == 0 && len(d.Odd) == 0
}

// Variant returns the block sequence for the chosen variant, falling back to
// Default when that variant has no content of its own.
func (d *HeaderFooterDef) Variant(v HFVariant) []Block {
	if d == nil {
		return nil
	}
	switch v {
	case VariantFirst:
		if len(d.First) > 0 {
			return d.First
		}
	case VariantEven:
		if len(d.Even) > 0 {
			return d.Even
		}
	case VariantOdd:
		if len(d.Odd) > 0 {
			return d.Odd
		}
	}
	return d.Default
}

// SectionHeaders holds the header and footer definitions of one section.
// Entries align with the SectionRange slice by index; a missing entry means
// the section inherits nothing and reserves no header/footer space.
type SectionHeaders struct {
	Header *HeaderFooterDef
	Footer *HeaderFooterDef

	// DifferentFirstPage selects the First variant on the section's first page.
	DifferentFirstPage bool
	// OddEvenPages enables even/odd alternation by page parity.
	OddEvenPages bool
}

// VariantFor selects the header/footer variant for a page. pageNumber is
// 1-indexed; sectionFirst marks the first page of the owning section.
// First-page override wins over parity alternation.
func (s *SectionHeaders) VariantFor(pageNumber int, sectionFirst bool) HFVariant {
	if s == nil {
		return VariantDefault
	}
	if s.DifferentFirstPage && sectionFirst {
		return VariantFirst
	}
	if s.OddEvenPages {
		if pageNumber%2 == 0 {
			return VariantEven
		}
		return VariantOdd
	}
	return VariantDefault
}

// DigitBucket returns the digit-count class of a page number (1 for 1-9,
// 2 for 10-99, and so on). Header/footer height depends only on this class,
// not on the literal number.
func DigitBucket(pageNumber int) int {
	if pageNumber < 1 {
		return 1
	}
	return len(strconv.Itoa(pageNumber))
}
