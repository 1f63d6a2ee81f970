package model

// BlockID is the stable identifier assigned to a block at import time.
// Ids are assigned once and never reused within a document.
type BlockID string

// BlockKind represents the kind of flow block
type BlockKind int

const (
	KindUnknown BlockKind = iota
	KindParagraph
	KindTable
	KindImage
	KindList
	KindSectionBreak
)

func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "Paragraph"
	case KindTable:
		return "Table"
	case KindImage:
		return "Image"
	case KindList:
		return "List"
	case KindSectionBreak:
		return "SectionBreak"
	default:
		return "Unknown"
	}
}

// Block is the interface for all flow content
type Block interface {
	ID() BlockID
	Kind() BlockKind
}

// TokenKind identifies a page-number token carried by a text run.
type TokenKind int

const (
	// TokenNone marks an ordinary literal run.
	TokenNone TokenKind = iota
	// TokenPage is the current page number.
	TokenPage
	// TokenNumPages is the total page count.
	TokenNumPages
)

func (t TokenKind) String() string {
	switch t {
	case TokenPage:
		return "PAGE"
	case TokenNumPages:
		return "NUMPAGES"
	default:
		return "None"
	}
}

// TextStyle describes the font context of a run
type TextStyle struct {
	FontName string
	FontSize float64 // in points
	Bold     bool
	Italic   bool
}

// TextRun is a span of text sharing one style. A run with a non-zero Token
// is a placeholder whose Text is substituted by the resolver at layout time;
// its stored Text (if any) is the last resolved value.
type TextRun struct {
	Text  string
	Style TextStyle
	Token TokenKind
}

// Indents holds paragraph indent attributes in layout units (points).
// Left and Right are signed: positive values shrink the available width,
// negative values extend content into the page margin. FirstLine and Hanging
// are unsigned offsets and mutually exclusive in effect.
type Indents struct {
	Left      float64
	Right     float64
	FirstLine float64
	Hanging   float64
}

// Paragraph represents a paragraph of text runs
type Paragraph struct {
	BlockID BlockID
	Runs    []TextRun
	Indents Indents

	// Pagination controls.
	KeepWithNext bool // do not end a page with this paragraph if its successor moved
	KeepTogether bool // split only when taller than a full column
}

func (p *Paragraph) ID() BlockID     { return p.BlockID }
func (p *Paragraph) Kind() BlockKind { return KindParagraph }

// Text concatenates the paragraph's run text
func (p *Paragraph) Text() string {
	var text string
	for _, r := range p.Runs {
		text += r.Text
	}
	return text
}

// HasTokens reports whether any run carries a page-number token.
func (p *Paragraph) HasTokens() bool {
	for _, r := range p.Runs {
		if r.Token != TokenNone {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the paragraph. The resolver substitutes token
// text into clones so the imported block stays untouched.
func (p *Paragraph) Clone() *Paragraph {
	cp := *p
	cp.Runs = make([]TextRun, len(p.Runs))
	copy(cp.Runs, p.Runs)
	return &cp
}

// TableCell is a single cell holding paragraph-like run content
type TableCell struct {
	Runs []TextRun
}

// Text concatenates the cell's run text
func (c TableCell) Text() string {
	var text string
	for _, r := range c.Runs {
		text += r.Text
	}
	return text
}

// TableRow is one row of cells
type TableRow struct {
	Cells []TableCell
}

// Table represents a table block. Rows may split across pages at row
// granularity; when RepeatHeaderRow is set, row 0 is re-emitted at the top
// of every continuation fragment.
type Table struct {
	BlockID         BlockID
	Rows            []TableRow
	RepeatHeaderRow bool
}

func (t *Table) ID() BlockID     { return t.BlockID }
func (t *Table) Kind() BlockKind { return KindTable }

// Columns returns the widest row's cell count
func (t *Table) Columns() int {
	cols := 0
	for _, row := range t.Rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}
	return cols
}

// Image represents a placed image or drawing with an intrinsic size in
// layout units
type Image struct {
	BlockID BlockID
	Width   float64
	Height  float64
	AltText string
}

func (i *Image) ID() BlockID     { return i.BlockID }
func (i *Image) Kind() BlockKind { return KindImage }

// ListItem is a single list item
type ListItem struct {
	Runs  []TextRun
	Level int // nesting depth, 0 = top level
}

// List represents an ordered or unordered list
type List struct {
	BlockID BlockID
	Items   []ListItem
	Ordered bool
}

func (l *List) ID() BlockID     { return l.BlockID }
func (l *List) Kind() BlockKind { return KindList }

// SectionBreakType controls whether a break forces a page boundary on its own
type SectionBreakType int

const (
	// BreakNextPage always opens a new page.
	BreakNextPage SectionBreakType = iota
	// BreakContinuous opens a new page only when the new section's geometry
	// is incompatible with the current page.
	BreakContinuous
)

func (t SectionBreakType) String() string {
	switch t {
	case BreakContinuous:
		return "Continuous"
	default:
		return "NextPage"
	}
}

// SectionBreak marks an explicit section boundary in the block stream.
// The geometry of the section it opens lives in the matching SectionRange.
type SectionBreak struct {
	BlockID BlockID
	Type    SectionBreakType
}

func (s *SectionBreak) ID() BlockID     { return s.BlockID }
func (s *SectionBreak) Kind() BlockKind { return KindSectionBreak }
