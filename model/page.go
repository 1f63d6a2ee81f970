package model

import (
	"fmt"
	"strings"
)

// Fragment is the portion of a block's rendering that lands on one page.
// Start and End are a half-open position range into the source block: line
// indices for paragraphs and lists, row indices for tables. Images and
// section breaks always span [0,1) and [0,0).
type Fragment struct {
	BlockID BlockID
	Kind    BlockKind
	Column  int // 0-based column index on the page
	BBox    BBox
	Start   int
	End     int
}

// Page represents a single laid-out page
type Page struct {
	Index       int // 0-based
	Size        PageSize
	Orientation Orientation
	Section     int // index of the section this page belongs to
	Fragments   []Fragment
}

// Number returns the 1-indexed page number
func (p *Page) Number() int {
	return p.Index + 1
}

// FragmentRef locates one fragment inside a layout
type FragmentRef struct {
	Page     int
	Fragment int
}

// Layout is the result of one complete layout pass
type Layout struct {
	// Version is the strictly increasing pass counter assigned by the
	// owning session. Consumers compare versions to detect stale geometry.
	Version uint64

	Pages []Page

	index map[BlockID][]FragmentRef
}

// PageCount returns the number of pages
func (l *Layout) PageCount() int {
	return len(l.Pages)
}

// BuildIndex (re)builds the block-id position index. Pagination calls this
// once after assembly; it is idempotent.
func (l *Layout) BuildIndex() {
	l.index = make(map[BlockID][]FragmentRef)
	for pi := range l.Pages {
		for fi := range l.Pages[pi].Fragments {
			id := l.Pages[pi].Fragments[fi].BlockID
			l.index[id] = append(l.index[id], FragmentRef{Page: pi, Fragment: fi})
		}
	}
}

// FragmentsOf returns the locations of every fragment produced from the
// given block, in page order.
func (l *Layout) FragmentsOf(id BlockID) []FragmentRef {
	return l.index[id]
}

// PageOf returns the index of the first page carrying any fragment of the
// given block, or -1 when the block produced no fragments.
func (l *Layout) PageOf(id BlockID) int {
	refs := l.index[id]
	if len(refs) == 0 {
		return -1
	}
	return refs[0].Page
}

// Summary renders a stable, human-readable page map. The CLI prints it and
// tests compare it across passes.
func (l *Layout) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "layout v%d: %d page(s)\n", l.Version, len(l.Pages))
	for i := range l.Pages {
		p := &l.Pages[i]
		fmt.Fprintf(&sb, "page %d: %.5gx%.5g %s, section %d, %d fragment(s)\n",
			p.Number(), p.Size.Width, p.Size.Height, p.Orientation, p.Section, len(p.Fragments))
		for _, f := range p.Fragments {
			fmt.Fprintf(&sb, "  %s %s col=%d [%d,%d) at (%.5g,%.5g) %.5gx%.5g\n",
				f.Kind, f.BlockID, f.Column, f.Start, f.End,
				f.BBox.X, f.BBox.Y, f.BBox.Width, f.BBox.Height)
		}
	}
	return sb.String()
}
