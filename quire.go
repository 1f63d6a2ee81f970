// Package quire paginates a semantic block document into discrete, sized
// pages with accurate typographic measurement, resolving page-number tokens
// in headers and footers along the way.
//
// Basic usage:
//
//	session, err := quire.New(blocks, sections)
//	if err != nil {
//	    // handle error
//	}
//	layout, snapshot, warnings, err := session.Layout(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", metrics.FormatWarnings(warnings))
//	}
//
// With headers and options:
//
//	session, err := quire.New(blocks, sections,
//	    quire.WithHeaders(headers),
//	    quire.WithBodyTokenResolution(true),
//	    quire.WithPolicy(policy),
//	)
//
// A [Session] owns all mutable layout state for one document: the
// header/footer cache, the metrics recorder, and the layout version counter.
// Nothing is shared between sessions, so independent documents (and tests)
// never cross-contaminate.
//
// For advanced use the lower-level measure, paginate, and resolver packages
// are also available.
package quire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/quire/hfcache"
	"github.com/tsawler/quire/measure"
	"github.com/tsawler/quire/metrics"
	"github.com/tsawler/quire/model"
	"github.com/tsawler/quire/paginate"
	"github.com/tsawler/quire/resolver"
)

// ErrSuperseded reports that a layout pass finished after a newer request
// had already been made; its output was discarded. Callers should simply use
// the result of the newer request.
var ErrSuperseded = errors.New("quire: layout superseded by a newer request")

// Session owns the layout state of one document: blocks, sections,
// header/footer definitions, the cache, and the version counter. Concurrent
// Layout calls on one session are sequenced, never raced; a fresh request
// supersedes an in-flight one by version.
type Session struct {
	id       uuid.UUID
	arena    *model.Arena
	sections []model.SectionRange
	headers  []model.SectionHeaders

	res    *resolver.Resolver
	rec    *metrics.Recorder
	logger *slog.Logger

	mu      sync.Mutex
	version atomic.Uint64
}

// New creates a layout session over the given document. Blocks and sections
// are treated as immutable inputs for the session's lifetime; structural
// faults in them (duplicate ids, unsorted sections) are reported here, not
// during layout.
func New(blocks []model.Block, sections []model.SectionRange, opts ...Option) (*Session, error) {
	arena, err := model.NewArena(blocks)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateSections(arena.Len(), sections); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fm := o.fontMetrics
	if fm == nil {
		if fm, err = measure.NewGoFontMetrics(); err != nil {
			return nil, fmt.Errorf("default font metrics: %w", err)
		}
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Session{
		id:       uuid.New(),
		arena:    arena,
		sections: sections,
		headers:  o.headers,
		rec:      metrics.NewRecorder(),
		logger:   logger,
	}
	s.logger = s.logger.With("session", s.id.String())

	me := measure.NewEngine(fm, measure.WithRecorder(s.rec))
	pe := paginate.NewEngine(me, paginate.WithRecorder(s.rec))
	s.res = resolver.NewResolver(me, pe,
		resolver.WithRecorder(s.rec),
		resolver.WithLogger(s.logger),
		resolver.WithCache(hfcache.NewWithConfig(hfcache.Config{Capacity: o.policy.CacheCapacity})),
		resolver.WithMaxIterations(o.policy.MaxIterations),
		resolver.WithIterationWarning(o.policy.WarnIterations),
		resolver.WithTimeWarning(time.Duration(o.policy.WarnResolveTimeMs)*time.Millisecond),
		resolver.WithBucketThreshold(o.policy.BucketThresholdPages),
		resolver.WithDigitBucketing(o.digitBucketing),
		resolver.WithBodyTokens(o.bodyTokens),
		resolver.WithCacheHealth(o.policy.CacheMinSample, o.policy.CacheMinHitRate, o.policy.CacheBudgetPer100Pages),
	)
	return s, nil
}

// ID returns the session's unique identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Version returns the version of the most recently requested layout pass
func (s *Session) Version() uint64 {
	return s.version.Load()
}

// Layout lays the document out and returns the pages, a metrics snapshot,
// and any advisory warnings. The document always gets some valid layout;
// degraded conditions surface only through the snapshot and warnings.
func (s *Session) Layout(ctx context.Context) (*model.Layout, *metrics.Snapshot, []metrics.Warning, error) {
	return s.Relayout(ctx, "layout")
}

// Relayout runs a fresh layout pass. The reason is diagnostic only; the
// embedding application decides when re-layout is warranted (an edit, a
// container resize) and says why.
//
// Each call claims the next version number immediately. If another call
// claims a newer version while this pass is in flight, this pass's output
// is discarded and ErrSuperseded returned: consumers detect staleness by
// version, not wall-clock recency.
func (s *Session) Relayout(ctx context.Context, reason string) (*model.Layout, *metrics.Snapshot, []metrics.Warning, error) {
	target := s.version.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec.Reset()
	stopTotal := s.rec.StartTotal()

	doc := resolver.Doc{Arena: s.arena, Sections: s.sections, Headers: s.headers}
	layout, tokenStats, err := s.res.Resolve(ctx, doc)
	stopTotal()
	if err != nil {
		return nil, nil, nil, err
	}

	if s.version.Load() != target {
		// A newer request arrived while this pass ran; its pass will produce
		// the current geometry.
		return nil, nil, nil, ErrSuperseded
	}

	layout.Version = target
	snapshot := s.rec.Snapshot(tokenStats, s.res.Cache().Stats())
	warnings := s.rec.Warnings()

	s.logger.Debug("layout pass complete",
		"reason", reason,
		"version", target,
		"pages", layout.PageCount(),
		"iterations", tokenStats.Iterations,
		"converged", tokenStats.Converged,
		"warnings", len(warnings),
	)
	return layout, snapshot, warnings, nil
}
