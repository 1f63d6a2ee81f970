package paginate

import (
	"context"
	"fmt"

	"github.com/tsawler/quire/measure"
	"github.com/tsawler/quire/metrics"
	"github.com/tsawler/quire/model"
)

// Doc is the read-only input to one pagination pass
type Doc struct {
	Arena    *model.Arena
	Sections []model.SectionRange
}

// HFReserve is the vertical space reserved for the header and footer of one
// section, in layout units.
type HFReserve struct {
	Header float64
	Footer float64
}

// Option configures the engine
type Option func(*Engine)

// WithRecorder attaches a metrics recorder; measurement and assembly time
// are attributed to their phases.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(e *Engine) {
		e.rec = rec
	}
}

// Engine paginates a block stream. It holds no per-pass state; the same
// engine serves every pass of a layout session.
type Engine struct {
	measurer *measure.Engine
	rec      *metrics.Recorder
}

// NewEngine creates a pagination engine over the given measurer
func NewEngine(m *measure.Engine, opts ...Option) *Engine {
	e := &Engine{measurer: m}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Paginate lays the document out into pages. reserve maps section index to
// header/footer reservations; missing entries reserve nothing. The returned
// layout carries no version; the owning session stamps one on completion.
func (e *Engine) Paginate(ctx context.Context, doc Doc, reserve map[int]HFReserve) (*model.Layout, error) {
	if doc.Arena == nil {
		return nil, &model.ConfigError{Reason: "nil block arena"}
	}
	if err := model.ValidateSections(doc.Arena.Len(), doc.Sections); err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}
	defer e.rec.Start(metrics.PhasePagination)()

	st := &state{
		layout:  &model.Layout{},
		doc:     doc,
		reserve: reserve,
	}
	st.enterSection(0)

	nextSection := 1
	for i := 0; i < doc.Arena.Len(); i++ {
		block := doc.Arena.At(i)

		if nextSection < len(doc.Sections) && i == doc.Sections[nextSection].StartBlock {
			forced := !doc.Sections[st.section].GeometryEquals(doc.Sections[nextSection])
			if sb, ok := block.(*model.SectionBreak); ok && sb.Type == model.BreakNextPage {
				forced = true
			}
			st.enterSection(nextSection)
			nextSection++
			if forced {
				st.openPage()
			}
		} else if sb, ok := block.(*model.SectionBreak); ok && sb.Type == model.BreakNextPage {
			// A stray break block outside any section boundary still forces
			// a fresh page.
			st.openPage()
		}

		e.place(ctx, st, block, i)
	}

	// A document always renders with some valid layout, even when empty.
	if len(st.layout.Pages) == 0 {
		st.openPage()
	}
	st.layout.BuildIndex()
	return st.layout, nil
}

// place emits the fragments of one block, splitting across columns and
// pages as needed.
func (e *Engine) place(ctx context.Context, st *state, block model.Block, index int) {
	st.ensurePage()

	switch b := block.(type) {
	case *model.SectionBreak:
		st.addFragment(model.Fragment{
			BlockID: b.ID(),
			Kind:    model.KindSectionBreak,
			Column:  st.column,
			BBox:    model.NewBBox(st.geom.colX(st.column), st.geom.contentTop+st.cursor, 0, 0),
		})

	case *model.Paragraph:
		if b.KeepWithNext {
			e.honorKeepWithNext(ctx, st, b, index)
		}
		m := e.measureBlock(ctx, b, st.geom.colWidth)
		e.placeLines(st, b.ID(), m, b.Indents, b.KeepTogether)

	case *model.List:
		m := e.measureBlock(ctx, b, st.geom.colWidth)
		e.placeLines(st, b.ID(), m, model.Indents{}, false)

	case *model.Table:
		m := e.measureBlock(ctx, b, st.geom.colWidth)
		e.placeRows(st, b, m)

	case *model.Image:
		m := e.measureBlock(ctx, b, st.geom.colWidth)
		if m.Height > st.remaining() && st.cursor > 0 {
			st.advanceColumn()
		}
		st.addFragment(model.Fragment{
			BlockID: b.ID(),
			Kind:    model.KindImage,
			Column:  st.column,
			BBox:    model.NewBBox(st.geom.colX(st.column), st.geom.contentTop+st.cursor, m.Width, m.Height),
			Start:   0,
			End:     1,
		})
		st.cursor += m.Height

	default:
		// Unknown kinds flow as their zero-extent measure.
		m := e.measureBlock(ctx, block, st.geom.colWidth)
		e.placeLines(st, block.ID(), m, model.Indents{}, false)
	}
}

// placeLines flows measured lines into columns, splitting at line
// granularity. Keep-together paragraphs split only when taller than a full
// column, and single-line strands are avoided when a later column can take
// the whole run.
func (e *Engine) placeLines(st *state, id model.BlockID, m measure.Measure, ind model.Indents, keepTogether bool) {
	lines := m.Lines
	if len(lines) == 0 {
		return
	}

	if keepTogether && m.Height > st.remaining() && m.Height <= st.geom.colHeight && st.cursor > 0 {
		st.advanceColumn()
	}

	start := 0
	for start < len(lines) {
		rem := st.remaining()
		fit := 0
		var h float64
		for start+fit < len(lines) {
			lh := lines[start+fit].Height
			if h+lh > rem && !(st.cursor == 0 && fit == 0) {
				break
			}
			h += lh
			fit++
		}

		// Orphan control: don't strand the opening line alone at the bottom
		// of a column that already has content.
		if start == 0 && fit == 1 && len(lines) >= 2 && st.cursor > 0 && fit < len(lines) {
			fit = 0
		}
		// Widow control: don't strand the closing line alone at the top of
		// the next column. The held-back remainder moves with it.
		widowHold := false
		if fit >= 2 && len(lines)-(start+fit) == 1 {
			fit--
			h -= lines[start+fit].Height
			widowHold = true
		}

		if fit == 0 {
			st.advanceColumn()
			continue
		}

		st.addFragment(model.Fragment{
			BlockID: id,
			Kind:    m.Kind,
			Column:  st.column,
			BBox: model.NewBBox(
				st.geom.colX(st.column)+ind.Left,
				st.geom.contentTop+st.cursor,
				m.Width, h),
			Start: start,
			End:   start + fit,
		})
		st.cursor += h
		start += fit
		if widowHold {
			st.advanceColumn()
		}
	}
}

// placeRows flows table rows into columns at row granularity. Continuation
// fragments of a table with a repeating header re-emit row 0's height at
// their top.
func (e *Engine) placeRows(st *state, t *model.Table, m measure.Measure) {
	rows := m.Rows
	if len(rows) == 0 {
		return
	}
	var headerH float64
	if t.RepeatHeaderRow {
		headerH = rows[0].Height
	}

	start := 0
	for start < len(rows) {
		rem := st.remaining()
		var repeat float64
		if start > 0 {
			repeat = headerH
		}

		fit := 0
		h := repeat
		for start+fit < len(rows) {
			rh := rows[start+fit].Height
			if h+rh > rem && !(st.cursor == 0 && fit == 0) {
				break
			}
			h += rh
			fit++
		}
		if fit == 0 {
			st.advanceColumn()
			continue
		}

		st.addFragment(model.Fragment{
			BlockID: t.ID(),
			Kind:    model.KindTable,
			Column:  st.column,
			BBox: model.NewBBox(
				st.geom.colX(st.column),
				st.geom.contentTop+st.cursor,
				m.Width, h),
			Start: start,
			End:   start + fit,
		})
		st.cursor += h
		start += fit
	}
}

// honorKeepWithNext advances the column before a keep-with-next paragraph
// that would otherwise end the column while its successor moves on.
func (e *Engine) honorKeepWithNext(ctx context.Context, st *state, p *model.Paragraph, index int) {
	if index+1 >= st.doc.Arena.Len() || st.cursor == 0 {
		return
	}
	m := e.measureBlock(ctx, p, st.geom.colWidth)
	next := e.measureBlock(ctx, st.doc.Arena.At(index+1), st.geom.colWidth)

	nextH := next.Height
	if len(next.Lines) > 0 {
		nextH = next.Lines[0].Height
	} else if len(next.Rows) > 0 {
		nextH = next.Rows[0].Height
	}

	rem := st.remaining()
	if m.Height <= rem && m.Height+nextH > rem && m.Height+nextH <= st.geom.colHeight {
		st.advanceColumn()
	}
}

func (e *Engine) measureBlock(ctx context.Context, b model.Block, width float64) measure.Measure {
	defer e.rec.Start(metrics.PhaseMeasure)()
	return e.measurer.Measure(ctx, b, width)
}
