package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/tsawler/quire/hfcache"
	"github.com/tsawler/quire/measure"
	"github.com/tsawler/quire/metrics"
	"github.com/tsawler/quire/model"
	"github.com/tsawler/quire/paginate"
)

// Doc is the full input to token resolution: the block stream plus the
// per-section header/footer definitions, aligned with Sections by index.
type Doc struct {
	Arena    *model.Arena
	Sections []model.SectionRange
	Headers  []model.SectionHeaders
}

func (d Doc) headersFor(section int) *model.SectionHeaders {
	if section < 0 || section >= len(d.Headers) {
		return nil
	}
	return &d.Headers[section]
}

// Option configures the resolver
type Option func(*Resolver)

// WithCache replaces the header/footer cache
func WithCache(c *hfcache.Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithRecorder attaches a metrics recorder
func WithRecorder(rec *metrics.Recorder) Option {
	return func(r *Resolver) { r.rec = rec }
}

// WithLogger enables verbose diagnostic logging of iterations and cache
// behavior.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMaxIterations bounds the fixed-point loop (default: 5)
func WithMaxIterations(n int) Option {
	return func(r *Resolver) { r.maxIterations = n }
}

// WithIterationWarning sets the iteration count beyond which a degraded-mode
// warning is recorded (default: 2).
func WithIterationWarning(n int) Option {
	return func(r *Resolver) { r.warnIterations = n }
}

// WithTimeWarning sets the total resolution time beyond which a
// degraded-mode warning is recorded (default: 100ms).
func WithTimeWarning(d time.Duration) Option {
	return func(r *Resolver) { r.warnTime = d }
}

// WithDigitBucketing toggles digit-bucket cache keying for large documents
// (default: enabled).
func WithDigitBucketing(enabled bool) Option {
	return func(r *Resolver) { r.bucketing = enabled }
}

// WithBucketThreshold sets the page count at which keying switches from
// exact to digit buckets (default: 64).
func WithBucketThreshold(pages int) Option {
	return func(r *Resolver) { r.bucketThreshold = pages }
}

// WithBodyTokens toggles token resolution inside body paragraphs
// (default: disabled).
func WithBodyTokens(enabled bool) Option {
	return func(r *Resolver) { r.bodyTokens = enabled }
}

// WithCacheHealth sets the advisory cache-health thresholds: the minimum
// lookup sample before thrash is judged, the hit rate below which thrash is
// reported, and the memory budget per 100 pages.
func WithCacheHealth(minSample int, minHitRate float64, budgetPer100Pages int64) Option {
	return func(r *Resolver) {
		r.healthMinSample = minSample
		r.healthMinHitRate = minHitRate
		r.healthBudget = budgetPer100Pages
	}
}

// WithClock injects the wall clock used for resolution timing (default:
// time.Now). Tests use a fake clock for deterministic timing assertions.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver orchestrates measurement and pagination in a fixed-point loop.
// Like every structure in a layout session it is single-writer: one Resolve
// runs at a time.
type Resolver struct {
	measurer  *measure.Engine
	paginator *paginate.Engine
	cache     *hfcache.Cache
	rec       *metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time

	maxIterations   int
	warnIterations  int
	warnTime        time.Duration
	bucketing       bool
	bucketThreshold int
	bodyTokens      bool

	healthMinSample  int
	healthMinHitRate float64
	healthBudget     int64

	// lastResolved tracks the previous resolved text per block id so only
	// changed blocks count as affected and need re-measuring.
	lastResolved map[model.BlockID]string
	affected     int
}

// NewResolver creates a resolver over the given engines
func NewResolver(m *measure.Engine, p *paginate.Engine, opts ...Option) *Resolver {
	r := &Resolver{
		measurer:  m,
		paginator: p,
		cache:     hfcache.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,

		maxIterations:   5,
		warnIterations:  2,
		warnTime:        100 * time.Millisecond,
		bucketing:       true,
		bucketThreshold: 64,

		healthMinSample:  20,
		healthMinHitRate: 0.30,
		healthBudget:     1 << 20, // 1 MiB per 100 pages
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the resolver's header/footer cache
func (r *Resolver) Cache() *hfcache.Cache {
	return r.cache
}

// Resolve lays out the document with all page-number tokens resolved. It
// returns the final layout and the convergence stats; the returned layout is
// always usable, even when the iteration budget ran out.
func (r *Resolver) Resolve(ctx context.Context, doc Doc) (*model.Layout, metrics.PageTokenStats, error) {
	r.lastResolved = make(map[model.BlockID]string)
	r.affected = 0

	pdoc := paginate.Doc{Arena: doc.Arena, Sections: doc.Sections}

	// Pass 0: placeholder reservations, single-digit page numbers.
	reserve := r.placeholderReservations(ctx, doc)
	layout, err := r.paginator.Paginate(ctx, pdoc, reserve)
	if err != nil {
		return nil, metrics.PageTokenStats{}, fmt.Errorf("initial pagination: %w", err)
	}

	stats := metrics.PageTokenStats{Converged: true}
	if !r.hasTokens(doc) {
		r.checkCacheHealth(layout.PageCount())
		return layout, stats, nil
	}

	begin := r.now()
	stats.Converged = false
	prev := r.fingerprint(layout)

	for iter := 1; iter <= r.maxIterations; iter++ {
		stats.Iterations = iter

		stopResolve := r.rec.Start(metrics.PhaseTokenResolution)
		reserve = r.resolvedReservations(ctx, doc, layout)
		iterDoc := pdoc
		if r.bodyTokens {
			iterDoc = r.substituteBody(doc, layout)
		}
		stopResolve()

		next, err := r.paginator.Paginate(ctx, iterDoc, reserve)
		if err != nil {
			return nil, stats, fmt.Errorf("iteration %d: %w", iter, err)
		}
		layout = next

		fp := r.fingerprint(layout)
		r.logger.Debug("token resolution iteration",
			"iteration", iter, "pages", layout.PageCount(), "affected", r.affected)
		if fp == prev {
			stats.Converged = true
			break
		}
		prev = fp
	}

	elapsed := r.now().Sub(begin)
	stats.TotalTimeMs = float64(elapsed) / float64(time.Millisecond)
	stats.AffectedBlocks = r.affected

	if !stats.Converged {
		r.rec.Warn(metrics.WarnConvergence,
			"token resolution did not stabilize within %d iterations; using last state", r.maxIterations)
	}
	if stats.Iterations > r.warnIterations {
		r.rec.Warn(metrics.WarnConvergence,
			"token resolution took %d iterations (threshold %d)", stats.Iterations, r.warnIterations)
	}
	if elapsed > r.warnTime {
		r.rec.Warn(metrics.WarnResolveTime,
			"token resolution took %v (threshold %v)", elapsed, r.warnTime)
	}
	r.checkCacheHealth(layout.PageCount())

	return layout, stats, nil
}

// HeaderFooter returns the resolved, measured layout of the header or footer
// for one page, going through the cache. Downstream renderers use it to
// paint the header/footer band without re-deriving layout.
func (r *Resolver) HeaderFooter(ctx context.Context, doc Doc, slot hfcache.Slot, section, pageNumber, totalPages int, sectionFirst bool) (hfcache.Layout, bool) {
	hdrs := doc.headersFor(section)
	if hdrs == nil {
		return hfcache.Layout{}, false
	}
	def := hdrs.Header
	if slot == hfcache.SlotFooter {
		def = hdrs.Footer
	}
	if def.IsEmpty() {
		return hfcache.Layout{}, false
	}
	variant := hdrs.VariantFor(pageNumber, sectionFirst)
	return r.resolveOne(ctx, doc, slot, section, def, variant, pageNumber, totalPages), true
}

// resolveOne produces the measured layout of one header/footer instance,
// consulting the cache first.
func (r *Resolver) resolveOne(ctx context.Context, doc Doc, slot hfcache.Slot, section int, def *model.HeaderFooterDef, variant model.HFVariant, pageNumber, totalPages int) hfcache.Layout {
	key := hfcache.KeyFor(section, slot, variant, pageNumber, totalPages, r.bucketThreshold, r.bucketing)
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	defer r.rec.Start(metrics.PhaseHeaderFooter)()

	width := sectionContentWidth(doc.Sections[section])
	blocks := def.Variant(variant)

	resolved := hfcache.Layout{}
	for _, b := range blocks {
		rb := r.substitute(b, pageNumber, totalPages)
		m := r.measurer.Measure(ctx, rb, width)
		resolved.Blocks = append(resolved.Blocks, rb)
		resolved.Measures = append(resolved.Measures, m)
		resolved.Height += m.Height
	}
	r.cache.Put(key, resolved)
	return resolved
}

// placeholderReservations computes pass-0 reservations assuming single-digit
// page numbers and a single-digit total.
func (r *Resolver) placeholderReservations(ctx context.Context, doc Doc) map[int]paginate.HFReserve {
	reserve := make(map[int]paginate.HFReserve, len(doc.Sections))
	for si := range doc.Sections {
		hdrs := doc.headersFor(si)
		if hdrs == nil {
			continue
		}
		variant := hdrs.VariantFor(1, true)
		var hr paginate.HFReserve
		if !hdrs.Header.IsEmpty() {
			hr.Header = r.resolveOne(ctx, doc, hfcache.SlotHeader, si, hdrs.Header, variant, 1, 1).Height
		}
		if !hdrs.Footer.IsEmpty() {
			hr.Footer = r.resolveOne(ctx, doc, hfcache.SlotFooter, si, hdrs.Footer, variant, 1, 1).Height
		}
		reserve[si] = hr
	}
	return reserve
}

// resolvedReservations recomputes per-section reservations from the pages of
// the previous pass. A section reserves the tallest resolved header and
// footer across its pages, so every page of the section nets out the same
// flow height.
func (r *Resolver) resolvedReservations(ctx context.Context, doc Doc, layout *model.Layout) map[int]paginate.HFReserve {
	total := layout.PageCount()
	reserve := make(map[int]paginate.HFReserve, len(doc.Sections))
	sectionStart := make(map[int]int) // section -> first page index

	for pi := range layout.Pages {
		si := layout.Pages[pi].Section
		if _, seen := sectionStart[si]; !seen {
			sectionStart[si] = pi
		}
		hdrs := doc.headersFor(si)
		if hdrs == nil {
			continue
		}
		pageNo := layout.Pages[pi].Number()
		variant := hdrs.VariantFor(pageNo, sectionStart[si] == pi)

		hr := reserve[si]
		if !hdrs.Header.IsEmpty() {
			h := r.resolveOne(ctx, doc, hfcache.SlotHeader, si, hdrs.Header, variant, pageNo, total).Height
			if h > hr.Header {
				hr.Header = h
			}
		}
		if !hdrs.Footer.IsEmpty() {
			h := r.resolveOne(ctx, doc, hfcache.SlotFooter, si, hdrs.Footer, variant, pageNo, total).Height
			if h > hr.Footer {
				hr.Footer = h
			}
		}
		reserve[si] = hr
	}
	return reserve
}

// fingerprint captures the convergence state of one pass: the page count
// plus every resolved token text. The loop terminates when two consecutive
// passes fingerprint identically.
func (r *Resolver) fingerprint(layout *model.Layout) string {
	ids := make([]string, 0, len(r.lastResolved))
	for id, text := range r.lastResolved {
		ids = append(ids, string(id)+"="+text)
	}
	sort.Strings(ids)
	return fmt.Sprintf("%d|%s", layout.PageCount(), strings.Join(ids, ","))
}

// checkCacheHealth forwards cache pathology to the recorder as advisory
// warnings.
func (r *Resolver) checkCacheHealth(totalPages int) {
	for _, w := range r.cache.CheckHealth(r.healthMinSample, r.healthMinHitRate, r.healthBudget, totalPages) {
		r.rec.Warn(w.Code, "%s", w.Message)
		r.logger.Debug("cache health", "code", w.Code, "detail", w.Message)
	}
}

// sectionContentWidth is the full width available to header/footer content:
// the oriented page width net of left and right margins. Headers span all
// columns.
func sectionContentWidth(s model.SectionRange) float64 {
	size := s.Page.Oriented(s.Orientation)
	w := size.Width - s.Margins.Left - s.Margins.Right
	if w < measure.MinLineWidth {
		w = measure.MinLineWidth
	}
	return w
}
