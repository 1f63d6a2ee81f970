package paginate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tsawler/quire/measure"
	"github.com/tsawler/quire/model"
)

// fixedMetrics measures every rune at 10pt wide, 12pt line height
type fixedMetrics struct{}

func (fixedMetrics) Extent(text string, style model.TextStyle) (float64, float64, error) {
	return float64(len([]rune(text))) * 10, 12, nil
}

func newEngine() *Engine {
	return NewEngine(measure.NewEngine(fixedMetrics{}))
}

func para(id, text string) *model.Paragraph {
	return &model.Paragraph{
		BlockID: model.BlockID(id),
		Runs:    []model.TextRun{{Text: text}},
	}
}

// wordRun builds text that wraps to exactly n lines in a 200pt column:
// each word is 20 runes (200pt), so every word takes its own line.
func wordRun(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = strings.Repeat("a", 20)
	}
	return strings.Join(words, " ")
}

func mustPaginate(t *testing.T, e *Engine, doc Doc, reserve map[int]HFReserve) *model.Layout {
	t.Helper()
	layout, err := e.Paginate(context.Background(), doc, reserve)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	return layout
}

func docOf(t *testing.T, blocks []model.Block, sections []model.SectionRange) Doc {
	t.Helper()
	arena, err := model.NewArena(blocks)
	if err != nil {
		t.Fatal(err)
	}
	return Doc{Arena: arena, Sections: sections}
}

func countKind(l *model.Layout, kind model.BlockKind) int {
	n := 0
	for _, p := range l.Pages {
		for _, f := range p.Fragments {
			if f.Kind == kind {
				n++
			}
		}
	}
	return n
}

func TestPaginate_FourSections(t *testing.T) {
	blocks := []model.Block{
		para("p0", "first section body"),
		&model.SectionBreak{BlockID: "sb1", Type: model.BreakContinuous},
		para("p2", "second section body"),
		&model.SectionBreak{BlockID: "sb3", Type: model.BreakContinuous},
		para("p4", "third section body"),
		&model.SectionBreak{BlockID: "sb5", Type: model.BreakContinuous},
		para("p6", "fourth section body"),
	}
	m := model.DefaultMargins()
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageLetter, Orientation: model.Portrait, Columns: 1, Margins: m},
		{StartBlock: 1, Page: model.PageLetter, Orientation: model.Portrait, Columns: 2, ColumnGap: 18, Margins: m},
		{StartBlock: 3, Page: model.PageLetter, Orientation: model.Portrait, Columns: 1, Margins: m},
		{StartBlock: 5, Page: model.PageLetter, Orientation: model.Landscape, Columns: 1, Margins: m},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	if layout.PageCount() != 4 {
		t.Fatalf("page count = %d, want 4\n%s", layout.PageCount(), layout.Summary())
	}
	if got := countKind(layout, model.KindSectionBreak); got != 3 {
		t.Errorf("section-break fragments = %d, want 3", got)
	}

	last := layout.Pages[3]
	if last.Orientation != model.Landscape {
		t.Errorf("page 4 orientation = %s, want Landscape", last.Orientation)
	}
	if last.Size.Width <= last.Size.Height {
		t.Errorf("page 4 size %gx%g is not landscape", last.Size.Width, last.Size.Height)
	}

	for i, p := range layout.Pages {
		if p.Section != i {
			t.Errorf("page %d belongs to section %d, want %d", i+1, p.Section, i)
		}
	}
}

func TestPaginate_ContinuousSameGeometrySharesPage(t *testing.T) {
	blocks := []model.Block{
		para("p0", "before"),
		&model.SectionBreak{BlockID: "sb1", Type: model.BreakContinuous},
		para("p2", "after"),
	}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageLetter, Columns: 1},
		{StartBlock: 1, Page: model.PageLetter, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	if layout.PageCount() != 1 {
		t.Errorf("page count = %d, want 1 (continuous, identical geometry)", layout.PageCount())
	}
}

func TestPaginate_NextPageBreakForces(t *testing.T) {
	blocks := []model.Block{
		para("p0", "before"),
		&model.SectionBreak{BlockID: "sb1", Type: model.BreakNextPage},
		para("p2", "after"),
	}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageLetter, Columns: 1},
		{StartBlock: 1, Page: model.PageLetter, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	if layout.PageCount() != 2 {
		t.Errorf("page count = %d, want 2 (forced break)", layout.PageCount())
	}
}

func TestPaginate_ParagraphSplitsAtLines(t *testing.T) {
	// 200x80 page, no margins: 6 x 12pt lines per page (72pt).
	blocks := []model.Block{para("p0", wordRun(10))}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	if layout.PageCount() != 2 {
		t.Fatalf("page count = %d, want 2\n%s", layout.PageCount(), layout.Summary())
	}

	refs := layout.FragmentsOf("p0")
	if len(refs) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(refs))
	}
	f1 := layout.Pages[refs[0].Page].Fragments[refs[0].Fragment]
	f2 := layout.Pages[refs[1].Page].Fragments[refs[1].Fragment]
	if f1.Start != 0 || f1.End != 6 {
		t.Errorf("first fragment range [%d,%d), want [0,6)", f1.Start, f1.End)
	}
	if f2.Start != 6 || f2.End != 10 {
		t.Errorf("second fragment range [%d,%d), want [6,10)", f2.Start, f2.End)
	}
}

func TestPaginate_TwoColumns(t *testing.T) {
	// 410x80 page, 2 columns, 10pt gap: 200pt columns, 6 lines each.
	blocks := []model.Block{para("p0", wordRun(10))}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 410, Height: 80}, Columns: 2, ColumnGap: 10},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	if layout.PageCount() != 1 {
		t.Fatalf("page count = %d, want 1\n%s", layout.PageCount(), layout.Summary())
	}

	frags := layout.Pages[0].Fragments
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}
	if frags[0].Column != 0 || frags[1].Column != 1 {
		t.Errorf("columns = %d/%d, want 0/1", frags[0].Column, frags[1].Column)
	}
	if frags[1].BBox.X <= frags[0].BBox.X {
		t.Error("second column should start right of the first")
	}
}

func TestPaginate_TableSplitsAtRows(t *testing.T) {
	// Rows measure 12 (line) + 4 (padding) = 16pt; 80pt page holds 5 rows.
	rows := make([]model.TableRow, 8)
	for i := range rows {
		rows[i] = model.TableRow{Cells: []model.TableCell{{Runs: []model.TextRun{{Text: "cell"}}}}}
	}
	blocks := []model.Block{&model.Table{BlockID: "t0", Rows: rows}}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	refs := layout.FragmentsOf("t0")
	if len(refs) != 2 {
		t.Fatalf("expected 2 table fragments, got %d\n%s", len(refs), layout.Summary())
	}
	f1 := layout.Pages[refs[0].Page].Fragments[refs[0].Fragment]
	f2 := layout.Pages[refs[1].Page].Fragments[refs[1].Fragment]
	if f1.End != 5 || f2.Start != 5 || f2.End != 8 {
		t.Errorf("row ranges [%d,%d) [%d,%d), want [0,5) [5,8)", f1.Start, f1.End, f2.Start, f2.End)
	}
}

func TestPaginate_RepeatHeaderRow(t *testing.T) {
	rows := make([]model.TableRow, 8)
	for i := range rows {
		rows[i] = model.TableRow{Cells: []model.TableCell{{Runs: []model.TextRun{{Text: "cell"}}}}}
	}
	blocks := []model.Block{&model.Table{BlockID: "t0", Rows: rows, RepeatHeaderRow: true}}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	refs := layout.FragmentsOf("t0")
	if len(refs) < 2 {
		t.Fatalf("expected a continuation fragment, got %d", len(refs))
	}
	first := layout.Pages[refs[0].Page].Fragments[refs[0].Fragment]
	cont := layout.Pages[refs[1].Page].Fragments[refs[1].Fragment]

	rowH := 16.0
	wantFirst := float64(first.End-first.Start) * rowH
	if first.BBox.Height != wantFirst {
		t.Errorf("first fragment height = %v, want %v", first.BBox.Height, wantFirst)
	}
	// Continuation carries the repeated header row on top.
	wantCont := float64(cont.End-cont.Start)*rowH + rowH
	if cont.BBox.Height != wantCont {
		t.Errorf("continuation height = %v, want %v (includes repeated header)", cont.BBox.Height, wantCont)
	}
}

func TestPaginate_KeepTogether(t *testing.T) {
	// 78pt column: filler takes 48pt, leaving 30. A 3-line (36pt) paragraph
	// fits a fresh column, so keep-together moves it wholly to page 2.
	blocks := []model.Block{
		para("filler", wordRun(4)),
		&model.Paragraph{BlockID: "kt", Runs: []model.TextRun{{Text: wordRun(3)}}, KeepTogether: true},
	}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 78}, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	refs := layout.FragmentsOf("kt")
	if len(refs) != 1 {
		t.Fatalf("keep-together paragraph split into %d fragments\n%s", len(refs), layout.Summary())
	}
	if refs[0].Page != 1 {
		t.Errorf("keep-together paragraph on page %d, want page 2", refs[0].Page+1)
	}
}

func TestPaginate_KeepWithNext(t *testing.T) {
	blocks := []model.Block{
		para("filler", wordRun(4)), // 48pt of a 78pt column
		&model.Paragraph{BlockID: "kwn", Runs: []model.TextRun{{Text: wordRun(2)}}, KeepWithNext: true},
		para("body", wordRun(3)),
	}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 78}, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	// kwn (24pt) would fit after the filler, but its successor would not
	// follow on the same page; both move.
	if got := layout.PageOf("kwn"); got != 1 {
		t.Errorf("keep-with-next paragraph on page %d, want page 2\n%s", got+1, layout.Summary())
	}
	if got := layout.PageOf("body"); got != 1 {
		t.Errorf("successor on page %d, want page 2", got+1)
	}
}

func TestPaginate_HeaderFooterReservationShrinksColumn(t *testing.T) {
	blocks := []model.Block{para("p0", wordRun(10))}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
	}
	doc := docOf(t, blocks, sections)

	// Without reservation: 6 lines per page -> 2 pages.
	layout := mustPaginate(t, newEngine(), doc, nil)
	if layout.PageCount() != 2 {
		t.Fatalf("baseline page count = %d, want 2", layout.PageCount())
	}

	// Reserving 40pt leaves 40pt -> 3 lines per page -> 4 pages.
	layout = mustPaginate(t, newEngine(), doc, map[int]HFReserve{0: {Header: 24, Footer: 16}})
	if layout.PageCount() != 4 {
		t.Errorf("reserved page count = %d, want 4\n%s", layout.PageCount(), layout.Summary())
	}
	if top := layout.Pages[0].Fragments[0].BBox.Y; top != 24 {
		t.Errorf("content top = %v, want 24 (below reserved header)", top)
	}
}

func TestPaginate_Idempotent(t *testing.T) {
	blocks := []model.Block{
		para("p0", wordRun(7)),
		&model.SectionBreak{BlockID: "sb", Type: model.BreakNextPage},
		para("p2", wordRun(3)),
	}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
		{StartBlock: 1, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
	}
	doc := docOf(t, blocks, sections)
	e := newEngine()

	first := mustPaginate(t, e, doc, nil)
	second := mustPaginate(t, e, doc, nil)

	if first.Summary() != second.Summary() {
		t.Errorf("layout not idempotent:\n%s\nvs\n%s", first.Summary(), second.Summary())
	}
}

func TestPaginate_UnsortedSectionsFatal(t *testing.T) {
	blocks := []model.Block{para("p0", "a"), para("p1", "b"), para("p2", "c")}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageLetter},
		{StartBlock: 2, Page: model.PageLetter},
		{StartBlock: 1, Page: model.PageLetter},
	}

	_, err := newEngine().Paginate(context.Background(), docOf(t, blocks, sections), nil)
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	var cfg *model.ConfigError
	if !errors.As(err, &cfg) {
		t.Errorf("expected *model.ConfigError, got %T: %v", err, err)
	}
}

func TestPaginate_EmptyDocumentRenders(t *testing.T) {
	layout := mustPaginate(t, newEngine(),
		docOf(t, nil, []model.SectionRange{{StartBlock: 0, Page: model.PageLetter}}), nil)

	if layout.PageCount() != 1 {
		t.Errorf("page count = %d, want 1 empty page", layout.PageCount())
	}
}

// failMetrics cannot measure anything; blocks degrade to zero height
type failMetrics struct{}

func (failMetrics) Extent(string, model.TextStyle) (float64, float64, error) {
	return 0, 0, errors.New("no metrics available")
}

func TestPaginate_BadMeasurementDoesNotAbort(t *testing.T) {
	e := NewEngine(measure.NewEngine(failMetrics{}))
	blocks := []model.Block{para("p0", "unmeasurable"), para("p1", "also unmeasurable")}
	sections := []model.SectionRange{{StartBlock: 0, Page: model.PageLetter}}

	layout, err := e.Paginate(context.Background(), docOf(t, blocks, sections), nil)
	if err != nil {
		t.Fatalf("pagination aborted on a per-block fault: %v", err)
	}
	if layout.PageCount() != 1 {
		t.Errorf("page count = %d, want 1", layout.PageCount())
	}
	// Zero-height fragments still reference their blocks.
	if layout.PageOf("p1") != 0 {
		t.Error("expected p1 to land on the page despite measuring empty")
	}
}

func TestPaginate_OrphanLineMovesWhole(t *testing.T) {
	// Filler leaves 20pt of an 80pt column: only the opening line of the
	// next paragraph would fit. Stranding it is avoidable, so the whole
	// paragraph moves to the next page.
	blocks := []model.Block{
		para("filler", wordRun(5)),
		para("orph", wordRun(3)),
	}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	refs := layout.FragmentsOf("orph")
	if len(refs) != 1 {
		t.Fatalf("expected 1 fragment, got %d\n%s", len(refs), layout.Summary())
	}
	if refs[0].Page != 1 {
		t.Errorf("paragraph opened on page %d, want page 2", refs[0].Page+1)
	}
	f := layout.Pages[refs[0].Page].Fragments[refs[0].Fragment]
	if f.Start != 0 || f.End != 3 {
		t.Errorf("fragment range [%d,%d), want [0,3)", f.Start, f.End)
	}
	if got := len(layout.Pages[0].Fragments); got != 1 {
		t.Errorf("page 1 fragments = %d, want only the filler", got)
	}
}

func TestPaginate_WidowLineHoldsBackCompanion(t *testing.T) {
	// 7 lines against a 6-line column: a plain split would leave line 7
	// alone on page 2, so the split holds line 6 back with it.
	blocks := []model.Block{para("p0", wordRun(7))}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 200, Height: 80}, Columns: 1},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	refs := layout.FragmentsOf("p0")
	if len(refs) != 2 {
		t.Fatalf("expected 2 fragments, got %d\n%s", len(refs), layout.Summary())
	}
	f1 := layout.Pages[refs[0].Page].Fragments[refs[0].Fragment]
	f2 := layout.Pages[refs[1].Page].Fragments[refs[1].Fragment]
	if f1.Start != 0 || f1.End != 5 {
		t.Errorf("first fragment range [%d,%d), want [0,5)", f1.Start, f1.End)
	}
	if f2.Start != 5 || f2.End != 7 {
		t.Errorf("second fragment range [%d,%d), want [5,7) (two closing lines)", f2.Start, f2.End)
	}
}

func TestPaginate_FragmentGeometry(t *testing.T) {
	// Same shape as TestPaginate_TwoColumns; here the box math is the
	// subject: column fragments stay disjoint and inside the page.
	blocks := []model.Block{para("p0", wordRun(10))}
	sections := []model.SectionRange{
		{StartBlock: 0, Page: model.PageSize{Width: 410, Height: 80}, Columns: 2, ColumnGap: 10},
	}

	layout := mustPaginate(t, newEngine(), docOf(t, blocks, sections), nil)

	page := layout.Pages[0]
	left, right := page.Fragments[0].BBox, page.Fragments[1].BBox

	if left.Intersects(right) {
		t.Errorf("column fragments overlap: %+v and %+v", left, right)
	}
	if left.Right() > right.Left() {
		t.Errorf("left column ends at %v, past the right column's %v", left.Right(), right.Left())
	}
	if right.Left()-left.Right() != 10 {
		t.Errorf("column gap = %v, want 10", right.Left()-left.Right())
	}
	for i, f := range page.Fragments {
		b := f.BBox
		if b.Top() < 0 || b.Bottom() > page.Size.Height || b.Left() < 0 || b.Right() > page.Size.Width {
			t.Errorf("fragment %d box %+v escapes the %gx%g page", i, b, page.Size.Width, page.Size.Height)
		}
		if !b.Contains(model.Point{X: b.Left() + 1, Y: b.Top() + 1}) {
			t.Errorf("fragment %d box does not contain its own interior", i)
		}
	}
}
