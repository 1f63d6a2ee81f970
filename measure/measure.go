package measure

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/quire/metrics"
	"github.com/tsawler/quire/model"
)

// Line is the measured geometry of one laid-out line of text
type Line struct {
	Text     string
	Width    float64 // advance width of the text actually on the line
	MaxWidth float64 // width the line was wrapped against (floored at MinLineWidth)
	Height   float64
}

// CellMeasure is the measured content of one table cell
type CellMeasure struct {
	Lines []Line
}

// Height sums the cell's line heights
func (c CellMeasure) Height() float64 {
	var h float64
	for _, ln := range c.Lines {
		h += ln.Height
	}
	return h
}

// RowMeasure is the measured geometry of one table row: the tallest cell
// sets the row height.
type RowMeasure struct {
	Height float64
	Cells  []CellMeasure
}

// Measure is the result of measuring one block at a given maximum width.
// Lines is populated for paragraphs and lists, Rows for tables; images carry
// only Width/Height.
type Measure struct {
	Kind   model.BlockKind
	Lines  []Line
	Rows   []RowMeasure
	Width  float64
	Height float64
}

// Config holds measurement configuration
type Config struct {
	// DefaultStyle is the fallback font context used when a run carries no
	// usable style or its font cannot be resolved.
	DefaultStyle model.TextStyle

	// ListIndent is the indentation per list nesting level.
	ListIndent float64

	// CellPadding is the vertical padding added above and below table cell
	// content.
	CellPadding float64
}

// DefaultConfig returns sensible measurement defaults
func DefaultConfig() Config {
	return Config{
		DefaultStyle: model.TextStyle{FontName: "Go", FontSize: 11},
		ListIndent:   18,
		CellPadding:  2,
	}
}

// Option configures the engine
type Option func(*Engine)

// WithRecorder attaches a metrics recorder; measurement faults surface
// through it as advisory warnings.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(e *Engine) { e.rec = rec }
}

// Engine measures blocks. It never mutates its inputs; the same engine
// instance serves every pass of one layout session, and like the session it
// is single-writer.
type Engine struct {
	fm     FontMetrics
	config Config
	rec    *metrics.Recorder

	// Fault bookkeeping: one warning per block id, however many of its
	// extents fail.
	warned  map[model.BlockID]struct{}
	faults  int
	lastErr error
}

// NewEngine creates a measurement engine with default configuration
func NewEngine(fm FontMetrics, opts ...Option) *Engine {
	return NewEngineWithConfig(fm, DefaultConfig(), opts...)
}

// NewEngineWithConfig creates a measurement engine with custom configuration
func NewEngineWithConfig(fm FontMetrics, config Config, opts ...Option) *Engine {
	e := &Engine{fm: fm, config: config, warned: make(map[model.BlockID]struct{})}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Measure measures one block at the given maximum width. It never fails:
// malformed content degrades to a single zero-height line, with the fault
// reported as an advisory warning through the recorder. The context is
// observed between lines because the metrics provider may block; a canceled
// context short-circuits the remainder of the block to zero-height lines.
func (e *Engine) Measure(ctx context.Context, block model.Block, maxWidth float64) Measure {
	before := e.faults
	m := e.measure(ctx, block, maxWidth)
	if n := e.faults - before; n > 0 {
		if _, seen := e.warned[block.ID()]; !seen {
			e.warned[block.ID()] = struct{}{}
			e.rec.Warn(metrics.WarnMeasureFault,
				"block %s: %d extent(s) unmeasurable (%v); zero extents used", block.ID(), n, e.lastErr)
		}
	}
	return m
}

func (e *Engine) measure(ctx context.Context, block model.Block, maxWidth float64) Measure {
	switch b := block.(type) {
	case *model.Paragraph:
		first, body := ParagraphWidths(maxWidth, b.Indents)
		lines := e.wrapRuns(ctx, b.Runs, first, body)
		return paragraphMeasure(model.KindParagraph, lines, body)

	case *model.List:
		var lines []Line
		for _, item := range b.Items {
			w := floorWidth(maxWidth - float64(item.Level)*e.config.ListIndent)
			lines = append(lines, e.wrapRuns(ctx, item.Runs, w, w)...)
		}
		if len(lines) == 0 {
			lines = []Line{zeroLine(floorWidth(maxWidth))}
		}
		return paragraphMeasure(model.KindList, lines, floorWidth(maxWidth))

	case *model.Table:
		return e.measureTable(ctx, b, maxWidth)

	case *model.Image:
		w, h := b.Width, b.Height
		if w > maxWidth && w > 0 {
			// Scale down proportionally; images never force a wider column.
			h = h * maxWidth / w
			w = maxWidth
		}
		return Measure{Kind: model.KindImage, Width: w, Height: h}

	case *model.SectionBreak:
		return Measure{Kind: model.KindSectionBreak}

	default:
		// Unknown block kinds measure as a zero-extent line so pagination
		// can carry on.
		return paragraphMeasure(model.KindUnknown, []Line{zeroLine(floorWidth(maxWidth))}, floorWidth(maxWidth))
	}
}

func paragraphMeasure(kind model.BlockKind, lines []Line, width float64) Measure {
	m := Measure{Kind: kind, Lines: lines, Width: width}
	for _, ln := range lines {
		m.Height += ln.Height
	}
	return m
}

func zeroLine(maxWidth float64) Line {
	return Line{MaxWidth: maxWidth}
}

func (e *Engine) measureTable(ctx context.Context, t *model.Table, maxWidth float64) Measure {
	cols := t.Columns()
	if cols == 0 {
		return Measure{Kind: model.KindTable, Width: floorWidth(maxWidth)}
	}
	cellWidth := floorWidth(maxWidth / float64(cols))

	m := Measure{Kind: model.KindTable, Width: floorWidth(maxWidth)}
	for _, row := range t.Rows {
		rm := RowMeasure{Cells: make([]CellMeasure, 0, len(row.Cells))}
		for _, cell := range row.Cells {
			cm := CellMeasure{Lines: e.wrapRuns(ctx, cell.Runs, cellWidth, cellWidth)}
			rm.Cells = append(rm.Cells, cm)
			if h := cm.Height(); h > rm.Height {
				rm.Height = h
			}
		}
		if rm.Height > 0 {
			rm.Height += 2 * e.config.CellPadding
		}
		m.Rows = append(m.Rows, rm)
		m.Height += rm.Height
	}
	return m
}

// styledWord is a word (or forced chunk of one) tagged with its run style.
// glue marks a word that continues the previous one with no intervening
// space, as when a style change falls mid-word.
type styledWord struct {
	text  string
	style model.TextStyle
	glue  bool
}

// wrapRuns performs greedy word wrapping of the runs across lines. The first
// line wraps against firstWidth, every later line against bodyWidth.
func (e *Engine) wrapRuns(ctx context.Context, runs []model.TextRun, firstWidth, bodyWidth float64) []Line {
	words := e.splitWords(runs)
	if len(words) == 0 {
		return []Line{zeroLine(firstWidth)}
	}

	var lines []Line
	lineWidth := func() float64 {
		if len(lines) == 0 {
			return firstWidth
		}
		return bodyWidth
	}

	var cur strings.Builder
	var curWidth, curHeight float64

	flush := func() {
		lines = append(lines, Line{
			Text:     cur.String(),
			Width:    curWidth,
			MaxWidth: lineWidth(),
			Height:   curHeight,
		})
		cur.Reset()
		curWidth, curHeight = 0, 0
	}

	for _, w := range words {
		if ctx != nil && ctx.Err() != nil {
			break
		}
		ww, wh := e.extent(w.text, w.style)
		spaceW := 0.0
		if cur.Len() > 0 && !w.glue {
			spaceW, _ = e.extent(" ", w.style)
		}

		if cur.Len() > 0 && curWidth+spaceW+ww > lineWidth() {
			flush()
			spaceW = 0
		}

		// A single word wider than the line is hard-split by runes.
		for cur.Len() == 0 && ww > lineWidth() {
			head, tail := e.splitByWidth(w.text, lineWidth(), w.style)
			if tail == "" {
				break
			}
			hw, hh := e.extent(head, w.style)
			cur.WriteString(head)
			curWidth, curHeight = hw, hh
			flush()
			w.text = tail
			ww, wh = e.extent(w.text, w.style)
		}

		if cur.Len() > 0 && !w.glue {
			cur.WriteString(" ")
		}
		cur.WriteString(w.text)
		curWidth += spaceW + ww
		if wh > curHeight {
			curHeight = wh
		}
	}
	if cur.Len() > 0 {
		flush()
	}
	if len(lines) == 0 {
		lines = []Line{zeroLine(firstWidth)}
	}
	return lines
}

// splitWords breaks runs into space-separated words, each keeping the style
// of the run it came from. A run boundary with no whitespace on either side
// is not a word boundary: the first word of such a run glues to the last
// word of the previous run. Empty runs contribute nothing.
func (e *Engine) splitWords(runs []model.TextRun) []styledWord {
	var words []styledWord
	openWord := false // the previous run ended mid-word
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		style := r.Style
		if style.FontSize <= 0 {
			style = e.config.DefaultStyle
		}
		fields := strings.Fields(r.Text)
		for i, w := range fields {
			glue := i == 0 && openWord && !leadingSpace(r.Text) && len(words) > 0
			words = append(words, styledWord{text: w, style: style, glue: glue})
		}
		if len(fields) == 0 {
			openWord = false // whitespace-only run closes the word
			continue
		}
		openWord = !trailingSpace(r.Text)
	}
	return words
}

func leadingSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}

func trailingSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

// splitByWidth cuts the longest prefix of word that fits within limit,
// keeping at least one rune so progress is guaranteed.
func (e *Engine) splitByWidth(word string, limit float64, style model.TextStyle) (head, tail string) {
	runes := []rune(word)
	if len(runes) < 2 {
		return word, ""
	}
	cut := 1
	for i := 2; i <= len(runes); i++ {
		w, _ := e.extent(string(runes[:i]), style)
		if w > limit {
			break
		}
		cut = i
	}
	if cut >= len(runes) {
		return word, ""
	}
	return string(runes[:cut]), string(runes[cut:])
}

// extent queries the metrics provider, falling back to the default style and
// finally to a zero extent. Measurement faults never propagate upward as
// errors; Measure reports them as warnings per block.
func (e *Engine) extent(text string, style model.TextStyle) (float64, float64) {
	w, h, err := e.fm.Extent(text, style)
	if err == nil {
		return w, h
	}
	w, h, err = e.fm.Extent(text, e.config.DefaultStyle)
	if err == nil {
		return w, h
	}
	e.faults++
	e.lastErr = err
	return 0, 0
}
