package metrics

import (
	"fmt"
	"strings"
	"time"
)

// Phase identifies one timed stage of a layout pass
type Phase int

const (
	PhaseMeasure Phase = iota
	PhasePagination
	PhaseTokenResolution
	PhaseHeaderFooter
)

func (p Phase) String() string {
	switch p {
	case PhaseMeasure:
		return "measure"
	case PhasePagination:
		return "pagination"
	case PhaseTokenResolution:
		return "tokenResolution"
	case PhaseHeaderFooter:
		return "headerFooter"
	default:
		return "unknown"
	}
}

// PageTokenStats reports the convergence behavior of token resolution
type PageTokenStats struct {
	TotalTimeMs    float64
	Iterations     int
	AffectedBlocks int
	Converged      bool
}

// CacheStats reports header/footer cache health
type CacheStats struct {
	Hits           int
	Misses         int
	HitRate        float64
	CacheSize      int
	MemoryEstimate int64
	Evictions      int
}

// LayoutTimings reports wall time per layout stage
type LayoutTimings struct {
	TotalTimeMs           float64
	MeasureTimeMs         float64
	PaginationTimeMs      float64
	TokenResolutionTimeMs float64
	HeaderFooterTimeMs    float64
}

// Snapshot is the complete diagnostics picture of one layout pass
type Snapshot struct {
	PageTokens        PageTokenStats
	HeaderFooterCache CacheStats
	Layout            LayoutTimings
}

// Warning is an advisory condition observed during layout. Warnings never
// accompany a failed layout; the document renders regardless.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// Warning codes.
const (
	WarnConvergence  = "convergence"
	WarnResolveTime  = "resolve-time"
	WarnCacheThrash  = "cache-thrash"
	WarnCacheGrowth  = "cache-growth"
	WarnMeasureFault = "measure-fault"
)

// FormatWarnings renders warnings one per line for log output
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "\n")
}

// Recorder accumulates timings and warnings for one layout session. The
// zero Clock uses time.Now; tests inject a fake clock for deterministic
// timing assertions.
type Recorder struct {
	Clock func() time.Time

	elapsed  map[Phase]time.Duration
	total    time.Duration
	warnings []Warning
}

// NewRecorder creates a recorder using the wall clock
func NewRecorder() *Recorder {
	return &Recorder{
		Clock:   time.Now,
		elapsed: make(map[Phase]time.Duration),
	}
}

func (r *Recorder) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

// Start begins timing a phase and returns the stop function, intended for
// defer at the instrumentation point.
func (r *Recorder) Start(p Phase) func() {
	if r == nil {
		return func() {}
	}
	begin := r.now()
	return func() {
		r.elapsed[p] += r.now().Sub(begin)
	}
}

// StartTotal begins timing the whole layout pass
func (r *Recorder) StartTotal() func() {
	if r == nil {
		return func() {}
	}
	begin := r.now()
	return func() {
		r.total = r.now().Sub(begin)
	}
}

// Elapsed returns the accumulated time of a phase
func (r *Recorder) Elapsed(p Phase) time.Duration {
	if r == nil {
		return 0
	}
	return r.elapsed[p]
}

// Warn records an advisory warning
func (r *Recorder) Warn(code, format string, args ...any) {
	if r == nil {
		return
	}
	r.warnings = append(r.warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns the warnings recorded so far
func (r *Recorder) Warnings() []Warning {
	if r == nil {
		return nil
	}
	return r.warnings
}

// Reset clears timings and warnings for a fresh layout pass
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.elapsed = make(map[Phase]time.Duration)
	r.total = 0
	r.warnings = nil
}

// Snapshot assembles the diagnostics picture from the recorder plus the
// token and cache stats supplied by their owners.
func (r *Recorder) Snapshot(tokens PageTokenStats, cache CacheStats) *Snapshot {
	s := &Snapshot{PageTokens: tokens, HeaderFooterCache: cache}
	if r != nil {
		s.Layout = LayoutTimings{
			TotalTimeMs:           ms(r.total),
			MeasureTimeMs:         ms(r.elapsed[PhaseMeasure]),
			PaginationTimeMs:      ms(r.elapsed[PhasePagination]),
			TokenResolutionTimeMs: ms(r.elapsed[PhaseTokenResolution]),
			HeaderFooterTimeMs:    ms(r.elapsed[PhaseHeaderFooter]),
		}
	}
	return s
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
