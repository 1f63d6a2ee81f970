package paginate

import (
	"github.com/tsawler/quire/measure"
	"github.com/tsawler/quire/model"
)

// geom is the derived column geometry of the active section
type geom struct {
	size        model.PageSize
	orientation model.Orientation
	margins     model.Margins
	cols        int
	gap         float64
	colWidth    float64
	colHeight   float64
	contentTop  float64
}

// sectionGeom derives column geometry from a section range and its
// header/footer reservation. Degenerate configurations clamp to minimum
// positive extents so flow always makes progress.
func sectionGeom(s model.SectionRange, r HFReserve) geom {
	size := s.Page.Oriented(s.Orientation)
	cols := s.Columns
	if cols < 1 {
		cols = 1
	}

	contentW := size.Width - s.Margins.Left - s.Margins.Right
	colWidth := (contentW - s.ColumnGap*float64(cols-1)) / float64(cols)
	if colWidth < measure.MinLineWidth {
		colWidth = measure.MinLineWidth
	}

	colHeight := size.Height - s.Margins.Top - s.Margins.Bottom - r.Header - r.Footer
	if colHeight < 1 {
		colHeight = 1
	}

	return geom{
		size:        size,
		orientation: s.Orientation,
		margins:     s.Margins,
		cols:        cols,
		gap:         s.ColumnGap,
		colWidth:    colWidth,
		colHeight:   colHeight,
		contentTop:  s.Margins.Top + r.Header,
	}
}

// colX returns the left edge of the given column
func (g geom) colX(col int) float64 {
	return g.margins.Left + float64(col)*(g.colWidth+g.gap)
}

// state is the pagination state machine: the current page, column, and
// vertical cursor within the active section's geometry.
type state struct {
	layout  *model.Layout
	doc     Doc
	reserve map[int]HFReserve

	section  int
	geom     geom
	pageOpen bool
	column   int
	cursor   float64 // vertical offset from the content top of the column
}

// enterSection switches the active geometry. The caller decides separately
// whether the transition forces a page boundary.
func (st *state) enterSection(i int) {
	st.section = i
	st.geom = sectionGeom(st.doc.Sections[i], st.reserve[i])
}

// openPage starts a fresh page in the active section's geometry
func (st *state) openPage() {
	st.layout.Pages = append(st.layout.Pages, model.Page{
		Index:       len(st.layout.Pages),
		Size:        st.geom.size,
		Orientation: st.geom.orientation,
		Section:     st.section,
	})
	st.pageOpen = true
	st.column = 0
	st.cursor = 0
}

// ensurePage opens the first page lazily
func (st *state) ensurePage() {
	if !st.pageOpen {
		st.openPage()
	}
}

// advanceColumn moves flow to the next column, opening a new page after the
// last one.
func (st *state) advanceColumn() {
	st.column++
	st.cursor = 0
	if st.column >= st.geom.cols {
		st.openPage()
	}
}

// remaining returns the unused vertical space in the current column
func (st *state) remaining() float64 {
	return st.geom.colHeight - st.cursor
}

// addFragment appends a fragment to the current page
func (st *state) addFragment(f model.Fragment) {
	page := &st.layout.Pages[len(st.layout.Pages)-1]
	page.Fragments = append(page.Fragments, f)
}
