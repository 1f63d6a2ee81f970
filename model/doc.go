// Package model provides the intermediate representation (IR) shared by all
// stages of the layout engine.
//
// This package defines the block-level document content that the importer
// produces, the section geometry that governs pagination, and the page and
// fragment structures that layout produces. It has no dependencies on the
// measurement or pagination machinery; all of those packages consume and
// produce model types.
//
// # Blocks
//
// All flow content implements the [Block] interface. The concrete types are:
//
//   - [Paragraph] - runs of styled text with indent attributes
//   - [Table] - rows and cells, with optional header-row repetition
//   - [Image] - placed images/drawings with intrinsic size
//   - [List] - ordered or unordered list items
//   - [SectionBreak] - an explicit section boundary
//
// Blocks are immutable once produced by the importer. The token resolver
// substitutes page-number text into copies, never into the originals.
//
// # Sections
//
// A [SectionRange] assigns page size, orientation, column layout, and margins
// to a contiguous run of blocks. Ranges must be sorted by starting block index
// and non-overlapping; [ValidateSections] enforces this and reports a
// structural error when violated.
//
// # Arena
//
// The [Arena] owns the ordered block sequence and addresses blocks by their
// stable string ids. Position indices are explicit (id to index); nothing in
// the engine depends on pointer identity.
//
// # Layout results
//
// A [Layout] is an ordered sequence of [Page] values, each carrying geometry
// and [Fragment] references back to source block ids. Every completed layout
// pass carries a strictly increasing version number so downstream consumers
// can detect stale geometry.
package model
