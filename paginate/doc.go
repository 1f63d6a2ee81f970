// Package paginate assembles measured blocks into discrete, sized pages.
//
// The [Engine] walks the ordered block stream as a state machine with one
// explicit state, the current page, and opens a new page when a section
// break forces one, when the next section's geometry is incompatible with
// the current page, or when the current column's vertical space is
// exhausted. Tables split across boundaries at row granularity, paragraphs
// and lists at line granularity.
//
// Pagination never aborts on a bad measurement: a zero-height line simply
// contributes no vertical space and flow continues. Structural faults in the
// section configuration (unsorted or overlapping ranges) are fatal and
// reported as a [model.ConfigError] before any page is produced.
//
// Header and footer space is an input, not a concern: the caller passes
// per-section [HFReserve] heights and the engine nets them out of each
// column. The token resolver owns computing those heights.
package paginate
